package desk

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"propertylens_backend/internal/model"
	"propertylens_backend/pkg/i18n"
	"propertylens_backend/pkg/logger"
	"propertylens_backend/pkg/prompts"
)

// ErrNoPDFs is returned when an upload contains no PDF documents.
var ErrNoPDFs = errors.New("please select at least one PDF file")

const (
	DefaultRiskDelay    = 500 * time.Millisecond
	followUpCallTimeout = 3 * time.Minute
)

// LocalFile is a file picked by the user before it is filtered to PDFs.
type LocalFile struct {
	Name string
	Data []byte
}

type Option func(*Flows)

func WithLanguage(lang string) Option {
	return func(f *Flows) { f.lang = i18n.Normalize(lang) }
}

func WithClock(now func() time.Time) Option {
	return func(f *Flows) { f.now = now }
}

// WithRiskDelay sets the pause before a scheduled re-assessment.
func WithRiskDelay(d time.Duration) Option {
	return func(f *Flows) { f.riskDelay = d }
}

// WithErrorHandler receives failures of scheduled follow-ups, which have no
// caller to return to.
func WithErrorHandler(fn func(id int64, err error)) Option {
	return func(f *Flows) { f.onError = fn }
}

// Flows runs the client-side actions against the relay and the store.
type Flows struct {
	store     *Store
	relay     Relay
	lang      string
	now       func() time.Time
	riskDelay time.Duration
	onError   func(id int64, err error)

	idMu   sync.Mutex
	lastID int64

	pending sync.WaitGroup
}

func NewFlows(store *Store, relay Relay, opts ...Option) *Flows {
	f := &Flows{
		store:     store,
		relay:     relay,
		lang:      i18n.DefaultLanguage,
		now:       time.Now,
		riskDelay: DefaultRiskDelay,
		onError: func(id int64, err error) {
			logger.Log.WithError(err).WithField("property", id).Error("Scheduled risk assessment failed")
		},
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// newID returns a millisecond timestamp, bumped when two properties are
// created within the same millisecond.
func (f *Flows) newID() int64 {
	f.idMu.Lock()
	defer f.idMu.Unlock()
	id := f.now().UnixMilli()
	if id <= f.lastID {
		id = f.lastID + 1
	}
	f.lastID = id
	return id
}

// ReadFiles loads files from disk for Upload.
func ReadFiles(paths []string) ([]LocalFile, error) {
	files := make([]LocalFile, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		files = append(files, LocalFile{Name: filepath.Base(p), Data: data})
	}
	return files, nil
}

// FilterPDFs keeps only files whose content is a PDF.
func FilterPDFs(files []LocalFile) []LocalFile {
	var pdfs []LocalFile
	for _, file := range files {
		if mimetype.Detect(file.Data).Is("application/pdf") {
			pdfs = append(pdfs, file)
		}
	}
	return pdfs
}

// Upload sends the PDFs among files as one batch describing a single
// property. On success the property is stored, selected, and a risk
// assessment is scheduled. On failure the store is untouched.
func (f *Flows) Upload(ctx context.Context, files []LocalFile) (model.Property, error) {
	pdfs := FilterPDFs(files)
	if len(pdfs) == 0 {
		return model.Property{}, ErrNoPDFs
	}

	uploads := make([]UploadFile, 0, len(pdfs))
	for _, pdf := range pdfs {
		uploads = append(uploads, UploadFile{
			FileName:  pdf.Name,
			PDFBase64: base64.StdEncoding.EncodeToString(pdf.Data),
		})
	}

	parsed, err := f.relay.ParseProperty(ctx, uploads, f.lang)
	if err != nil {
		return model.Property{}, err
	}
	return f.addParsed(parsed)
}

// ImportText creates a property from pasted listing text.
func (f *Flows) ImportText(ctx context.Context, text string) (model.Property, error) {
	if strings.TrimSpace(text) == "" {
		return model.Property{}, errors.New("text is empty")
	}
	parsed, err := f.relay.ParseText(ctx, text, f.lang)
	if err != nil {
		return model.Property{}, err
	}
	return f.addParsed(parsed)
}

func (f *Flows) addParsed(parsed model.ParsedProperty) (model.Property, error) {
	p := parsed.ToProperty(f.newID(), f.now())
	if err := f.store.Add(p); err != nil {
		return model.Property{}, err
	}
	f.scheduleRisk(p.ID)
	return p, nil
}

// AssessRisk scores the property's current state and stores the result,
// overwriting any earlier assessment. Concurrent calls are not coalesced.
func (f *Flows) AssessRisk(ctx context.Context, id int64) (model.RiskAssessment, error) {
	p, ok := f.store.Property(id)
	if !ok {
		return model.RiskAssessment{}, ErrPropertyNotFound
	}

	done := f.store.beginAssessing(id)
	defer done()

	risk, err := f.relay.AssessRisk(ctx, p, f.lang)
	if err != nil {
		return model.RiskAssessment{}, err
	}
	risk.Normalize()
	if err := f.store.SetRisk(id, risk); err != nil {
		return model.RiskAssessment{}, err
	}
	return risk, nil
}

// CorrectionOutcome reports what a correction did.
type CorrectionOutcome struct {
	Explanation   string
	Applied       bool
	FieldsChanged []string
	Skipped       []string
	RiskScheduled bool
	Property      model.Property
}

// Correct sends a free-text correction. An empty update set only yields the
// explanation; otherwise the updates are merged, a history entry is
// appended and, when the change affects risk, one re-assessment is
// scheduled.
func (f *Flows) Correct(ctx context.Context, id int64, text string) (CorrectionOutcome, error) {
	p, ok := f.store.Property(id)
	if !ok {
		return CorrectionOutcome{}, ErrPropertyNotFound
	}

	result, err := f.relay.CorrectProperty(ctx, p, text, f.lang)
	if err != nil {
		return CorrectionOutcome{}, err
	}

	outcome := CorrectionOutcome{Explanation: result.Explanation, Property: p}
	if !result.HasUpdates() {
		return outcome, nil
	}

	updated, skipped := p.Apply(result.Updates)
	outcome.Skipped = skipped
	if len(skipped) == len(result.Updates) {
		return outcome, nil
	}

	fields := result.FieldsChanged
	if len(fields) == 0 {
		fields = appliedKeys(result.Updates, skipped)
	}
	now := f.now().UTC().Format(time.RFC3339)
	updated.LastCorrected = now
	updated.Corrections = append(updated.Corrections, model.Correction{
		Date:   now,
		Text:   text,
		Fields: append([]string(nil), fields...),
	})

	if err := f.store.Replace(updated); err != nil {
		return CorrectionOutcome{}, err
	}

	outcome.Applied = true
	outcome.FieldsChanged = fields
	outcome.Property = updated
	if result.AffectsRisk {
		f.scheduleRisk(id)
		outcome.RiskScheduled = true
	}
	return outcome, nil
}

func appliedKeys(updates map[string]json.RawMessage, skipped []string) []string {
	skip := make(map[string]bool, len(skipped))
	for _, k := range skipped {
		skip[k] = true
	}
	keys := make([]string, 0, len(updates))
	for k := range updates {
		if !skip[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Analyze runs one of the fixed analysis templates for the property.
func (f *Flows) Analyze(ctx context.Context, id int64, kind model.AnalysisKind) (string, error) {
	p, ok := f.store.Property(id)
	if !ok {
		return "", ErrPropertyNotFound
	}
	return f.relay.Analyze(ctx, prompts.Analysis(kind, p, f.lang, f.now()))
}

// Ask sends a custom question in the property's context.
func (f *Flows) Ask(ctx context.Context, id int64, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", errors.New("question is empty")
	}
	p, ok := f.store.Property(id)
	if !ok {
		return "", ErrPropertyNotFound
	}
	return f.relay.Analyze(ctx, prompts.Question(p, question, f.lang, f.now()))
}

func (f *Flows) scheduleRisk(id int64) {
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		if f.riskDelay > 0 {
			time.Sleep(f.riskDelay)
		}
		ctx, cancel := context.WithTimeout(context.Background(), followUpCallTimeout)
		defer cancel()
		if _, err := f.AssessRisk(ctx, id); err != nil {
			f.onError(id, fmt.Errorf("assess risk: %w", err))
		}
	}()
}

// Wait blocks until every scheduled follow-up has finished.
func (f *Flows) Wait() {
	f.pending.Wait()
}
