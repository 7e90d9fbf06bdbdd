// Package crmsync enriches the companies in a LACRM account and writes the
// results back as pipeline items and company card fields.
package crmsync

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/salgsmotor/internal/config"
	"github.com/sells-group/salgsmotor/internal/metrics"
	"github.com/sells-group/salgsmotor/internal/model"
	"github.com/sells-group/salgsmotor/pkg/brreg"
	"github.com/sells-group/salgsmotor/pkg/lacrm"
)

// DefaultPipelineName is the pipeline recommendations are filed under.
const DefaultPipelineName = "Potensielle kunder"

// PipelineStatuses are created with a new pipeline. The first is the status
// of every new item.
var PipelineStatuses = []string{"Foreslått", "Under vurdering", "Kontaktet", "Proposal sendt", "Lukket vunnet", "Lukket tapt"}

const unknownCompany = "Unknown Company"

// Enricher returns enriched records.
type Enricher interface {
	Enrich(ctx context.Context, orgnr string, force bool) (*model.Record, error)
}

// Recommender evaluates sales recommendations for a record.
type Recommender interface {
	Recommend(rec *model.Record, now time.Time) []model.Recommendation
}

// Options controls one sync run.
type Options struct {
	// UpdateMissingOrgNr searches the registry by name for contacts without
	// an orgnr and writes the match back.
	UpdateMissingOrgNr bool
	// DryRun logs every CRM write instead of performing it.
	DryRun bool
	// WriteFields updates the company card fields.
	WriteFields bool
	Concurrency int
}

// Report counts the outcome of a run.
type Report struct {
	RunID           string
	Processed       atomic.Int64
	Enriched        atomic.Int64
	Failed          atomic.Int64
	Skipped         atomic.Int64
	ItemsCreated    atomic.Int64
	ContactsUpdated atomic.Int64
}

// Counts is a point-in-time copy of a Report.
type Counts struct {
	RunID           string `json:"run_id"`
	Processed       int64  `json:"processed"`
	Enriched        int64  `json:"enriched"`
	Failed          int64  `json:"failed"`
	Skipped         int64  `json:"skipped"`
	ItemsCreated    int64  `json:"items_created"`
	ContactsUpdated int64  `json:"contacts_updated"`
}

// Counts snapshots the counters.
func (r *Report) Counts() Counts {
	return Counts{
		RunID:           r.RunID,
		Processed:       r.Processed.Load(),
		Enriched:        r.Enriched.Load(),
		Failed:          r.Failed.Load(),
		Skipped:         r.Skipped.Load(),
		ItemsCreated:    r.ItemsCreated.Load(),
		ContactsUpdated: r.ContactsUpdated.Load(),
	}
}

// Syncer drives a LACRM sync.
type Syncer struct {
	crm         lacrm.Client
	enricher    Enricher
	registry    brreg.Client
	recommender Recommender
	commenter   Commenter
	cfg         config.LACRMConfig
	now         func() time.Time
}

// New creates a Syncer. A nil commenter uses the fixed fallback text.
func New(crm lacrm.Client, enricher Enricher, registry brreg.Client, recommender Recommender, commenter Commenter, cfg config.LACRMConfig) *Syncer {
	if commenter == nil {
		commenter = NewAICommenter(nil, "")
	}
	if cfg.PipelineName == "" {
		cfg.PipelineName = DefaultPipelineName
	}
	return &Syncer{
		crm:         crm,
		enricher:    enricher,
		registry:    registry,
		recommender: recommender,
		commenter:   commenter,
		cfg:         cfg,
		now:         time.Now,
	}
}

// run is the state shared by the contacts of one sync run.
type run struct {
	*Syncer
	opts     Options
	report   *Report
	log      *zap.Logger
	pipeline func() (string, error)
}

// Run syncs every company-related contact. Per-contact failures are counted
// and logged; only listing the contacts or cancellation fails the run.
func (s *Syncer) Run(ctx context.Context, opts Options) (*Report, error) {
	report := &Report{RunID: uuid.NewString()}
	log := zap.L().With(zap.String("run_id", report.RunID), zap.Bool("dry_run", opts.DryRun))

	contacts, err := s.crm.SearchContacts(ctx, "")
	if err != nil {
		return report, eris.Wrap(err, "crmsync: list contacts")
	}
	companies := companyContacts(contacts)
	log.Info("crmsync: starting sync",
		zap.Int("contacts", len(contacts)),
		zap.Int("companies", len(companies)),
	)

	r := &run{Syncer: s, opts: opts, report: report, log: log}
	r.pipeline = sync.OnceValues(func() (string, error) { return r.resolvePipeline(ctx) })

	limit := opts.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, c := range companies {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			r.processContact(gctx, c)
			return nil
		})
	}
	_ = g.Wait()

	counts := report.Counts()
	log.Info("crmsync: sync complete",
		zap.Int64("processed", counts.Processed),
		zap.Int64("enriched", counts.Enriched),
		zap.Int64("failed", counts.Failed),
		zap.Int64("skipped", counts.Skipped),
		zap.Int64("items_created", counts.ItemsCreated),
		zap.Int64("contacts_updated", counts.ContactsUpdated),
	)
	if err := ctx.Err(); err != nil {
		return report, eris.Wrap(err, "crmsync: run interrupted")
	}
	return report, nil
}

// companyContacts keeps company records and people with a company name.
func companyContacts(contacts []lacrm.Contact) []lacrm.Contact {
	out := make([]lacrm.Contact, 0, len(contacts))
	for _, c := range contacts {
		if c.IsCompanyRecord() || c.CompanyName != "" {
			out = append(out, c)
		}
	}
	return out
}

// companyName falls back to FirstName for company records, where LACRM
// sometimes stores the name.
func companyName(c lacrm.Contact) string {
	if !c.IsCompanyRecord() {
		return strings.TrimSpace(c.CompanyName)
	}
	for _, n := range []string{c.CompanyName, c.FirstName} {
		if n = strings.TrimSpace(n); n != "" {
			return n
		}
	}
	return unknownCompany
}

func (r *run) skip(log *zap.Logger, msg string, fields ...zap.Field) {
	log.Info(msg, fields...)
	r.report.Skipped.Add(1)
	metrics.CRMSyncContacts.WithLabelValues("skipped").Inc()
}

func (r *run) fail(log *zap.Logger, msg string, err error) {
	log.Warn(msg, zap.Error(err))
	r.report.Failed.Add(1)
	metrics.CRMSyncContacts.WithLabelValues("failed").Inc()
}

func (r *run) processContact(ctx context.Context, c lacrm.Contact) {
	r.report.Processed.Add(1)
	contactID := c.ContactID.String()
	name := companyName(c)
	log := r.log.With(zap.String("contact_id", contactID), zap.String("company", name))
	if contactID == "" || name == "" {
		r.skip(log, "crmsync: contact without id or company name")
		return
	}

	orgnr := c.FieldValue(r.cfg.OrgNrFieldID)
	if orgnr == "" && r.opts.UpdateMissingOrgNr {
		found, err := r.registry.SearchByName(ctx, name)
		if err != nil {
			if errors.Is(err, brreg.ErrNotFound) {
				r.skip(log, "crmsync: no registry match for company name")
			} else {
				r.fail(log, "crmsync: registry name search failed", err)
			}
			return
		}
		orgnr = found.String()
		log.Info("crmsync: found missing orgnr", zap.String("orgnr", orgnr))
		if r.cfg.OrgNrFieldID != "" {
			r.editContact(ctx, log, contactID, map[string]string{r.cfg.OrgNrFieldID: orgnr})
		}
	}
	if orgnr == "" {
		r.skip(log, "crmsync: contact has no orgnr")
		return
	}
	log = log.With(zap.String("orgnr", orgnr))

	rec, err := r.enricher.Enrich(ctx, orgnr, false)
	if err != nil {
		r.fail(log, "crmsync: enrichment failed", err)
		return
	}
	r.report.Enriched.Add(1)
	metrics.CRMSyncContacts.WithLabelValues("enriched").Inc()

	now := r.now()
	recs := r.recommender.Recommend(rec, now)
	if len(recs) > 0 && !r.opts.DryRun {
		r.createItems(ctx, log, rec, name, recs)
	}

	if r.opts.WriteFields {
		payload := MapFields(rec, recs, r.cfg.CustomFields, now)
		if len(payload) == 0 {
			log.Info("crmsync: no mapped fields to write")
			return
		}
		r.editContact(ctx, log, contactID, payload)
	}
}

// editContact writes fields unless the run is dry.
func (r *run) editContact(ctx context.Context, log *zap.Logger, contactID string, fields map[string]string) {
	if r.opts.DryRun {
		log.Info("crmsync: dry run, contact not updated", zap.Any("fields", fields))
		return
	}
	if err := r.crm.EditContact(ctx, contactID, fields); err != nil {
		log.Warn("crmsync: contact update failed", zap.Error(err))
		return
	}
	r.report.ContactsUpdated.Add(1)
}

func (r *run) resolvePipeline(ctx context.Context) (string, error) {
	pipelines, err := r.crm.GetPipelines(ctx)
	if err != nil {
		return "", eris.Wrap(err, "crmsync: list pipelines")
	}
	for _, p := range pipelines {
		if p.Name == r.cfg.PipelineName {
			r.log.Info("crmsync: using existing pipeline", zap.String("pipeline_id", p.PipelineID.String()))
			return p.PipelineID.String(), nil
		}
	}
	id, err := r.crm.CreatePipeline(ctx, r.cfg.PipelineName, PipelineStatuses)
	if err != nil {
		return "", eris.Wrap(err, "crmsync: create pipeline")
	}
	r.log.Info("crmsync: created pipeline", zap.String("pipeline_id", id))
	return id, nil
}

func (r *run) createItems(ctx context.Context, log *zap.Logger, rec *model.Record, contactName string, recs []model.Recommendation) {
	pipelineID, err := r.pipeline()
	if err != nil {
		log.Warn("crmsync: pipeline unavailable, skipping recommendations", zap.Error(err))
		return
	}
	name := rec.CompanyName()
	if name == "" {
		name = contactName
	}
	phone, email := companyPhone(rec), companyEmail(rec)

	for _, recommendation := range recs {
		service := recommendation.Kind.Norwegian()
		comment := r.commenter.Comment(ctx, rec, service)
		fields := pipelineFields(r.cfg.PipelineFields, map[string]string{
			"company":       name,
			"orgnr":         rec.OrgNumber.String(),
			"category_main": service,
			"phone":         phone,
			"email":         email,
			"comment":       comment,
		})
		itemID, err := r.crm.CreatePipelineItem(ctx, lacrm.PipelineItem{
			PipelineID:   pipelineID,
			Name:         name + " - " + service,
			StatusName:   PipelineStatuses[0],
			CustomFields: fields,
		})
		if err != nil {
			log.Warn("crmsync: pipeline item failed", zap.String("service", service), zap.Error(err))
			continue
		}
		r.report.ItemsCreated.Add(1)
		log.Info("crmsync: pipeline item created", zap.String("service", service), zap.String("item_id", itemID))
	}
}

// pipelineFields keys values by the configured field IDs.
func pipelineFields(ids config.PipelineFieldsConfig, values map[string]string) map[string]string {
	out := make(map[string]string)
	for key, id := range map[string]string{
		"company":       ids.Company,
		"orgnr":         ids.OrgNr,
		"category_main": ids.CategoryMain,
		"phone":         ids.Phone,
		"email":         ids.Email,
		"comment":       ids.Comment,
	} {
		if id != "" && values[key] != "" {
			out[id] = values[key]
		}
	}
	return out
}
