package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"google.golang.org/genai"

	"github.com/yungbote/fulltheme-backend/internal/platform/envutil"
	"github.com/yungbote/fulltheme-backend/internal/platform/logger"
)

const DefaultModel = "gemini-2.0-flash"

// Client produces schema-conforming JSON through the Gemini API.
type Client interface {
	GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error)
	Model() string
}

type Config struct {
	APIKey      string
	Model       string
	Temperature *float32
}

// ConfigFromEnv reads GOOGLE_API_KEY (or GEMINI_API_KEY) and GEMINI_MODEL.
func ConfigFromEnv() Config {
	key := envutil.String("GOOGLE_API_KEY", "")
	if key == "" {
		key = envutil.String("GEMINI_API_KEY", "")
	}
	temp := float32(0.2)
	return Config{
		APIKey:      key,
		Model:       envutil.String("GEMINI_MODEL", DefaultModel),
		Temperature: &temp,
	}
}

type client struct {
	log         *logger.Logger
	genai       *genai.Client
	model       string
	temperature *float32
}

func NewClient(ctx context.Context, log *logger.Logger, cfg Config) (Client, error) {
	if log == nil {
		return nil, fmt.Errorf("logger required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("missing GOOGLE_API_KEY")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = DefaultModel
	}
	return &client{
		log:         log.With("service", "GeminiClient"),
		genai:       gc,
		model:       model,
		temperature: cfg.Temperature,
	}, nil
}

// WithModel returns a client sharing base's connection but targeting model.
func WithModel(base Client, model string) Client {
	model = strings.TrimSpace(model)
	c, ok := base.(*client)
	if !ok || model == "" {
		return base
	}
	clone := *c
	clone.model = model
	return &clone
}

func (c *client) Model() string { return c.model }

func (c *client) GenerateJSON(ctx context.Context, system string, user string, schemaName string, schema map[string]any) (map[string]any, error) {
	if schema == nil {
		return nil, errors.New("schema required")
	}
	rs, err := SchemaFromMap(schema)
	if err != nil {
		return nil, fmt.Errorf("schema %s: %w", schemaName, err)
	}
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    rs,
		Temperature:       c.temperature,
	}
	resp, err := c.genai.Models.GenerateContent(ctx, c.model, []*genai.Content{
		genai.NewContentFromText(user, genai.RoleUser),
	}, cfg)
	if err != nil {
		return nil, wrapError(err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return nil, &OutputError{Reason: "no text returned for " + schemaName}
	}
	return c.decode(schemaName, text)
}

func (c *client) decode(schemaName, text string) (map[string]any, error) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(text), &obj); err != nil {
		c.log.Debug("Gemini model JSON not parseable", "schema", schemaName, "bytes", len(text), "text", text)
		return nil, &OutputError{Reason: "failed to parse model JSON", Err: err}
	}
	return obj, nil
}

// OutputError is a completed call whose output could not be used. Model text
// is kept out of the message because it may quote the document being coded.
type OutputError struct {
	Reason string
	Err    error
}

func (e *OutputError) Error() string {
	if e.Err != nil {
		return "gemini: " + e.Reason + ": " + e.Err.Error()
	}
	return "gemini: " + e.Reason
}

func (e *OutputError) Unwrap() error { return e.Err }

// Permanent keeps rate limiters from retrying bad output.
func (e *OutputError) Permanent() bool { return true }

// APIError carries the status of a failed Gemini call so the limiter can
// classify it without importing genai.
type APIError struct {
	Code    int
	Status  string
	Message string
	Err     error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("gemini http %d %s: %s", e.Code, e.Status, e.Message)
}

func (e *APIError) Unwrap() error { return e.Err }

func (e *APIError) HTTPStatusCode() int {
	if e == nil {
		return 0
	}
	return e.Code
}

func wrapError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &APIError{Code: apiErr.Code, Status: apiErr.Status, Message: apiErr.Message, Err: err}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		return &APIError{Code: apiErrPtr.Code, Status: apiErrPtr.Status, Message: apiErrPtr.Message, Err: err}
	}
	return err
}

// SchemaFromMap converts a JSON-schema subset (type, description, properties,
// required, items, enum) into a genai.Schema. additionalProperties is
// implied by Gemini and dropped.
func SchemaFromMap(m map[string]any) (*genai.Schema, error) {
	if m == nil {
		return nil, nil
	}
	out := &genai.Schema{}
	typ, _ := m["type"].(string)
	switch typ {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		return nil, fmt.Errorf("unsupported schema type %q", typ)
	}
	if d, ok := m["description"].(string); ok {
		out.Description = d
	}
	if enum, ok := stringList(m["enum"]); ok {
		out.Enum = enum
	}
	if props, ok := m["properties"].(map[string]any); ok {
		out.Properties = make(map[string]*genai.Schema, len(props))
		keys := make([]string, 0, len(props))
		for k := range props {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			pm, ok := props[k].(map[string]any)
			if !ok {
				return nil, fmt.Errorf("property %q is not an object", k)
			}
			ps, err := SchemaFromMap(pm)
			if err != nil {
				return nil, fmt.Errorf("property %q: %w", k, err)
			}
			out.Properties[k] = ps
		}
	}
	if req, ok := stringList(m["required"]); ok {
		out.Required = req
		out.PropertyOrdering = req
	}
	if items, ok := m["items"].(map[string]any); ok {
		is, err := SchemaFromMap(items)
		if err != nil {
			return nil, fmt.Errorf("items: %w", err)
		}
		out.Items = is
	}
	return out, nil
}

func stringList(v any) ([]string, bool) {
	switch t := v.(type) {
	case []string:
		return t, true
	case []any:
		out := make([]string, 0, len(t))
		for _, x := range t {
			s, ok := x.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
