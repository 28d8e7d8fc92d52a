package desk

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"

	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/logger"
)

// Persistence keys. Properties and risks keep the names the browser client
// used in localStorage so exported data stays interchangeable.
const (
	PropertiesKey = "real_estate_properties"
	RisksKey      = "real_estate_risks"
	SelectedKey   = "real_estate_selected"
)

var ErrPropertyNotFound = errors.New("property not found")

// KV is a string-keyed persistence backend in the manner of localStorage.
// SetAll writes every given key or none of them.
type KV interface {
	Get(key string) ([]byte, bool, error)
	SetAll(values map[string][]byte) error
}

// FileKV keeps every key in a single JSON object on disk.
type FileKV struct {
	path string
	mu   sync.Mutex
}

func NewFileKV(path string) *FileKV {
	return &FileKV{path: path}
}

func (f *FileKV) read() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}
	values := map[string]string{}
	if len(data) == 0 {
		return values, nil
	}
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.path, err)
	}
	return values, nil
}

func (f *FileKV) Get(key string) ([]byte, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		return nil, false, err
	}
	v, ok := values[key]
	return []byte(v), ok, nil
}

// SetAll merges values into the file with a single tmp-file write and rename.
func (f *FileKV) SetAll(updates map[string][]byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.read()
	if err != nil {
		// A corrupt file is replaced rather than blocking every write.
		values = map[string]string{}
	}
	for key, value := range updates {
		values[key] = string(value)
	}

	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, f.path)
}

// Snapshot is an immutable view of the store handed to subscribers.
type Snapshot struct {
	Properties []model.Property
	Risks      map[int64]model.RiskAssessment
	SelectedID int64
	Assessing  map[int64]bool
}

type state struct {
	properties []model.Property
	risks      map[int64]model.RiskAssessment
	selected   int64
}

func (s state) clone() state {
	out := state{
		properties: make([]model.Property, len(s.properties)),
		risks:      make(map[int64]model.RiskAssessment, len(s.risks)),
		selected:   s.selected,
	}
	for i, p := range s.properties {
		out.properties[i] = p.Clone()
	}
	for id, r := range s.risks {
		out.risks[id] = cloneRisk(r)
	}
	return out
}

func (s state) index(id int64) int {
	for i, p := range s.properties {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func cloneRisk(r model.RiskAssessment) model.RiskAssessment {
	if r.Recommendations != nil {
		r.Recommendations = append([]string(nil), r.Recommendations...)
	}
	return r
}

// Store is the client's single source of truth for properties and risk
// assessments. Every change goes through mutate, which persists and then
// notifies subscribers.
type Store struct {
	kv KV

	mu        sync.RWMutex
	st        state
	assessing map[int64]int

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Open loads the persisted collections. Missing or unreadable values start
// empty.
func Open(kv KV) *Store {
	s := &Store{
		kv:        kv,
		assessing: map[int64]int{},
		subs:      map[int]func(Snapshot){},
		st:        state{risks: map[int64]model.RiskAssessment{}},
	}

	var props []model.Property
	if load(kv, PropertiesKey, &props) {
		s.st.properties = props
	}
	var risks map[int64]model.RiskAssessment
	if load(kv, RisksKey, &risks) && risks != nil {
		s.st.risks = risks
	}
	var selected int64
	if load(kv, SelectedKey, &selected) && s.st.index(selected) >= 0 {
		s.st.selected = selected
	}
	return s
}

func load(kv KV, key string, v interface{}) bool {
	raw, ok, err := kv.Get(key)
	if err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Could not read stored value")
		return false
	}
	if !ok || len(raw) == 0 {
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		logger.Log.WithError(err).WithField("key", key).Warn("Stored value is corrupt, starting empty")
		return false
	}
	return true
}

func (s *Store) persist(st state) error {
	props := st.properties
	if props == nil {
		props = []model.Property{}
	}
	values := map[string]interface{}{
		PropertiesKey: props,
		RisksKey:      st.risks,
		SelectedKey:   st.selected,
	}
	batch := make(map[string][]byte, len(values))
	for key, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("encode %s: %w", key, err)
		}
		batch[key] = raw
	}
	if err := s.kv.SetAll(batch); err != nil {
		return fmt.Errorf("persist store: %w", err)
	}
	return nil
}

// mutate applies fn to a copy of the state. The copy is committed only if
// fn succeeds and the result is persisted.
func (s *Store) mutate(fn func(st *state) error) error {
	s.mu.Lock()
	next := s.st.clone()
	if err := fn(&next); err != nil {
		s.mu.Unlock()
		return err
	}
	if err := s.persist(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.st = next
	snap := s.snapshotLocked()
	s.mu.Unlock()

	s.notify(snap)
	return nil
}

func (s *Store) snapshotLocked() Snapshot {
	c := s.st.clone()
	assessing := make(map[int64]bool, len(s.assessing))
	for id, n := range s.assessing {
		if n > 0 {
			assessing[id] = true
		}
	}
	return Snapshot{Properties: c.properties, Risks: c.risks, SelectedID: c.selected, Assessing: assessing}
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for every committed change and returns a function
// that removes it.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *Store) notify(snap Snapshot) {
	s.subMu.Lock()
	ids := make([]int, 0, len(s.subs))
	for id := range s.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	fns := make([]func(Snapshot), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, s.subs[id])
	}
	s.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func (s *Store) Properties() []model.Property {
	return s.Snapshot().Properties
}

func (s *Store) Risks() map[int64]model.RiskAssessment {
	return s.Snapshot().Risks
}

func (s *Store) Property(id int64) (model.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.st.index(id); i >= 0 {
		return s.st.properties[i].Clone(), true
	}
	return model.Property{}, false
}

func (s *Store) Risk(id int64) (model.RiskAssessment, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.st.risks[id]
	return cloneRisk(r), ok
}

// Selected returns the current property, or false when nothing is selected.
func (s *Store) Selected() (model.Property, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.st.index(s.st.selected); i >= 0 {
		return s.st.properties[i].Clone(), true
	}
	return model.Property{}, false
}

// Add appends p and selects it.
func (s *Store) Add(p model.Property) error {
	return s.mutate(func(st *state) error {
		if st.index(p.ID) >= 0 {
			return fmt.Errorf("property %d already exists", p.ID)
		}
		st.properties = append(st.properties, p.Clone())
		st.selected = p.ID
		return nil
	})
}

// Replace swaps in the new version of an existing property and selects it.
func (s *Store) Replace(p model.Property) error {
	return s.mutate(func(st *state) error {
		i := st.index(p.ID)
		if i < 0 {
			return ErrPropertyNotFound
		}
		st.properties[i] = p.Clone()
		st.selected = p.ID
		return nil
	})
}

// Delete removes the property and its risk. If it was selected, selection
// falls back to the first remaining property, or to none.
func (s *Store) Delete(id int64) error {
	return s.mutate(func(st *state) error {
		i := st.index(id)
		if i < 0 {
			return ErrPropertyNotFound
		}
		st.properties = append(st.properties[:i], st.properties[i+1:]...)
		delete(st.risks, id)
		if st.selected == id {
			st.selected = 0
			if len(st.properties) > 0 {
				st.selected = st.properties[0].ID
			}
		}
		return nil
	})
}

func (s *Store) Select(id int64) error {
	return s.mutate(func(st *state) error {
		if st.index(id) < 0 {
			return ErrPropertyNotFound
		}
		st.selected = id
		return nil
	})
}

// SetRisk stores r for the property, replacing any earlier assessment.
func (s *Store) SetRisk(id int64, r model.RiskAssessment) error {
	return s.mutate(func(st *state) error {
		if st.index(id) < 0 {
			return ErrPropertyNotFound
		}
		st.risks[id] = cloneRisk(r)
		return nil
	})
}

// beginAssessing marks an in-flight assessment. Calls are counted, so two
// overlapping assessments keep the flag up until both finish.
func (s *Store) beginAssessing(id int64) func() {
	s.setAssessing(id, 1)
	return func() { s.setAssessing(id, -1) }
}

func (s *Store) setAssessing(id int64, delta int) {
	s.mu.Lock()
	s.assessing[id] += delta
	if s.assessing[id] <= 0 {
		delete(s.assessing, id)
	}
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

func (s *Store) Assessing(id int64) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.assessing[id] > 0
}

// ParseID parses a property id given on the command line.
func ParseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid property id %q", s)
	}
	return id, nil
}
