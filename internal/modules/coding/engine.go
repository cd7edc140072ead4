package coding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/yungbote/fulltheme-backend/internal/chunker"
	types "github.com/yungbote/fulltheme-backend/internal/domain"
	"github.com/yungbote/fulltheme-backend/internal/llm"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
	"github.com/yungbote/fulltheme-backend/internal/ratelimit"
)

// Document is already-extracted text the caller is allowed to read.
type Document struct {
	ID      uuid.UUID
	Name    string
	Content string
}

// Run is the input to one coding pass.
type Run struct {
	ProjectID       uuid.UUID
	Documents       []Document
	ResearchContext string
	// ExistingCodes are offered for reuse in inductive mode and form the
	// closed vocabulary in deductive mode.
	ExistingCodes []ExistingCode
	Coder         llm.Coder
}

type Summary struct {
	TotalCodes       int      `json:"total_codes"`
	TotalAssignments int      `json:"total_assignments"`
	CodesCreated     int      `json:"codes_created"`
	CodesModified    int      `json:"codes_modified"`
	CodesDeleted     int      `json:"codes_deleted"`
	CodesGrouped     int      `json:"codes_grouped"`
	ChunksProcessed  int      `json:"chunks_processed"`
	ChunksFailed     int      `json:"chunks_failed"`
	Errors           []string `json:"errors"`
	ConnectionError  bool     `json:"connection_error"`
	QuotaExhausted   bool     `json:"quota_exhausted"`
}

func (s *Summary) addError(format string, args ...any) {
	s.Errors = append(s.Errors, fmt.Sprintf(format, args...))
}

// Totals recomputes the code and assignment counts from reg.
func (s *Summary) Totals(reg *Registry) {
	s.TotalCodes = len(reg.LiveCodes())
	s.TotalAssignments = len(reg.Assignments())
}

type Result struct {
	Registry *Registry
	Summary  Summary
}

// Engine runs the chunk-by-chunk coding loop against an in-memory registry.
type Engine struct {
	log      *logger.Logger
	splitter *chunker.Splitter
	tracer   trace.Tracer
}

func NewEngine(log *logger.Logger, splitter *chunker.Splitter) *Engine {
	return &Engine{
		log:      log.With("service", "CodingEngine"),
		splitter: splitter,
		tracer:   otel.Tracer("fulltheme/coding"),
	}
}

type chunkFunc func(ctx context.Context, reg *Registry, doc Document, ch chunker.Chunk, sum *Summary) error

// Inductive lets the model invent codes, reusing any name already seen in
// this run.
func (e *Engine) Inductive(ctx context.Context, run Run) (*Result, error) {
	existing := FormatCodes(run.ExistingCodes)
	return e.run(ctx, "coding.inductive", run, NewRegistry(), func(ctx context.Context, reg *Registry, doc Document, ch chunker.Chunk, sum *Summary) error {
		out, err := run.Coder.InitialCoding(ctx, llm.InitialCodingInput{
			Text:            ch.Text,
			ResearchContext: run.ResearchContext,
			ExistingCodes:   existing,
		})
		if err != nil {
			return err
		}
		for _, c := range out.Codes {
			desc := strings.TrimSpace(c.CodeDescription)
			if desc == "" {
				desc = "Auto-created code: " + c.Code
			}
			if reg.Add(&CodeRecord{
				Name:            c.Code,
				Description:     desc,
				Color:           types.DefaultCodeColor,
				ProjectID:       run.ProjectID,
				IsAutoGenerated: true,
				Status:          StatusCreated,
			}) {
				sum.CodesCreated++
			}
			reg.AddAssignment(newAssignment(doc.ID, c.Code, c.Quote, c.Confidence, ch))
		}
		return nil
	})
}

// Deductive restricts the model to run.ExistingCodes. Names outside that set
// are dropped.
func (e *Engine) Deductive(ctx context.Context, run Run) (*Result, error) {
	reg := NewRegistry()
	for _, c := range run.ExistingCodes {
		reg.Add(&CodeRecord{
			Name:        c.Name,
			Description: c.Description,
			Color:       c.Color,
			ProjectID:   run.ProjectID,
			Status:      StatusExisting,
		})
	}
	available := FormatCodes(run.ExistingCodes)
	return e.run(ctx, "coding.deductive", run, reg, func(ctx context.Context, reg *Registry, doc Document, ch chunker.Chunk, sum *Summary) error {
		out, err := run.Coder.DeductiveCoding(ctx, llm.DeductiveCodingInput{
			Text:            ch.Text,
			ResearchContext: run.ResearchContext,
			AvailableCodes:  available,
		})
		if err != nil {
			return err
		}
		for i, name := range out.AssignedCodes {
			if _, ok := reg.Get(name); !ok {
				e.log.Debug("Dropping code outside codebook", "code", name, "document_id", doc.ID)
				continue
			}
			reg.AddAssignment(newAssignment(doc.ID, name, out.Quote, DeductiveConfidence(out.ConfidenceScores, i), ch))
		}
		return nil
	})
}

func (e *Engine) run(ctx context.Context, spanName string, run Run, reg *Registry, fn chunkFunc) (*Result, error) {
	if run.Coder == nil {
		return nil, errors.New("coder required")
	}
	ctx, span := e.tracer.Start(ctx, spanName, trace.WithAttributes(
		attribute.Int("coding.documents", len(run.Documents)),
		attribute.String("llm.provider", run.Coder.Provider()),
	))
	defer span.End()

	res := &Result{Registry: reg, Summary: Summary{Errors: []string{}}}
	sum := &res.Summary

	for _, doc := range run.Documents {
		chunks := e.splitter.Split(doc.Content)
		for _, ch := range chunks {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			err := fn(ctx, reg, doc, ch, sum)
			if err == nil {
				sum.ChunksProcessed++
				continue
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			sum.ChunksFailed++
			sum.addError("document %s chunk %d: %v", doc.ID, ch.Index, err)
			e.log.Warn("Chunk coding failed, skipping",
				"document_id", doc.ID, "chunk", ch.Index, "error", err)
			if errors.Is(err, ratelimit.ErrProviderExhausted) {
				// The limiter waits out the provider's backoff before the next chunk.
				sum.QuotaExhausted = true
			}
		}
	}

	sum.Totals(reg)
	span.SetAttributes(
		attribute.Int("coding.codes", sum.TotalCodes),
		attribute.Int("coding.assignments", sum.TotalAssignments),
		attribute.Int("coding.chunks_failed", sum.ChunksFailed),
	)
	return res, nil
}

func newAssignment(docID uuid.UUID, code, quote string, confidence int, ch chunker.Chunk) *AssignmentRecord {
	start, end := LocateQuote(ch, quote)
	return &AssignmentRecord{
		DocumentID:   docID,
		CodeName:     code,
		StartChar:    start,
		EndChar:      end,
		Quote:        quote,
		TextSnapshot: Snapshot(quote, ch.Text),
		Confidence:   clamp(confidence, 0, 100),
		Status:       StatusCreated,
	}
}

// LocateQuote returns document rune offsets of the first literal occurrence
// of quote inside the chunk. A missing or empty quote spans the whole chunk.
func LocateQuote(ch chunker.Chunk, quote string) (int, int) {
	q := strings.TrimSpace(quote)
	if q != "" {
		if idx := strings.Index(ch.Text, q); idx >= 0 {
			start := ch.Start + utf8.RuneCountInString(ch.Text[:idx])
			return start, start + utf8.RuneCountInString(q)
		}
	}
	end := ch.End
	if end <= ch.Start {
		end = ch.Start + 1
	}
	return ch.Start, end
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
