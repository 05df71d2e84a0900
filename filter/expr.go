package filter

import (
	"maps"
	"strings"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/s0up4200/gyazo/gyazo"
)

// exprFilter implements CompiledFilter using the expr language
type exprFilter struct {
	expression string
	program    *vm.Program
	helpers    map[string]any
}

// ExprCompilerOption configures an expr compiler
type ExprCompilerOption func(*ExprCompiler)

// WithCache enables filter caching with the specified size
func WithCache(size int) ExprCompilerOption {
	return func(c *ExprCompiler) {
		if size > 0 {
			c.cache = newLRUCache[CompiledFilter](size)
		}
	}
}

// WithCustomFunctions adds custom helper functions
func WithCustomFunctions(funcs map[string]any) ExprCompilerOption {
	return func(c *ExprCompiler) {
		maps.Copy(c.helperFuncs, funcs)
	}
}

// ExprCompiler compiles expressions evaluated against gyazo.Image values
type ExprCompiler struct {
	helperFuncs map[string]any
	cache       *lruCache[CompiledFilter]
}

// NewExprCompiler creates a new expr-based filter compiler
func NewExprCompiler(opts ...ExprCompilerOption) *ExprCompiler {
	c := &ExprCompiler{
		helperFuncs: createHelperFunctions(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Compile compiles an expression into an executable filter.
// Unknown identifiers are rejected at compile time.
func (c *ExprCompiler) Compile(expression string) (CompiledFilter, error) {
	expression = strings.TrimSpace(expression)
	if expression == "" {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "empty expression",
		}
	}

	if c.cache != nil {
		if cached, ok := c.cache.Get(expression); ok {
			return cached, nil
		}
	}

	program, err := expr.Compile(expression,
		expr.Env(prototypeEnvironment(c.helperFuncs)),
		expr.AsBool(),
	)
	if err != nil {
		return nil, &CompilationError{
			Expression: expression,
			Reason:     "failed to compile expression",
			Err:        err,
		}
	}

	filter := &exprFilter{
		expression: expression,
		program:    program,
		helpers:    c.helperFuncs,
	}

	if c.cache != nil {
		c.cache.Put(expression, filter)
	}

	return filter, nil
}

// Clear removes all cached filters
func (c *ExprCompiler) Clear() {
	if c.cache != nil {
		c.cache.Clear()
	}
}

// Size returns the number of cached filters
func (c *ExprCompiler) Size() int {
	if c.cache != nil {
		return c.cache.Len()
	}
	return 0
}

// Match evaluates the filter; evaluation errors count as no match
func (f *exprFilter) Match(img gyazo.Image) bool {
	ok, err := f.Evaluate(img)
	return err == nil && ok
}

// Evaluate runs the program against img
func (f *exprFilter) Evaluate(img gyazo.Image) (bool, error) {
	result, err := expr.Run(f.program, runtimeEnvironment(f.helpers, img))
	if err != nil {
		return false, &EvaluationError{Expression: f.expression, ImageID: img.ImageID, Err: err}
	}

	// AsBool guarantees the result type
	return result.(bool), nil
}

// Expression returns the expression as compiled
func (f *exprFilter) Expression() string {
	return f.expression
}

// createHelperFunctions creates the static helper functions
func createHelperFunctions() map[string]any {
	return map[string]any{
		// Date helpers
		"daysSince": func(t time.Time) int {
			return int(time.Since(t).Hours() / 24)
		},
		"daysAgo": func(days int) time.Time {
			return time.Now().AddDate(0, 0, -days)
		},
		"monthsAgo": func(months int) time.Time {
			return time.Now().AddDate(0, -months, 0)
		},
		"yearsAgo": func(years int) time.Time {
			return time.Now().AddDate(-years, 0, 0)
		},
		"parseDate": func(dateStr string) time.Time {
			t, _ := time.ParseInLocation("2006-01-02", dateStr, time.Local)
			return t
		},
		// String helpers
		"contains": func(str, substr string) bool {
			return strings.Contains(strings.ToLower(str), strings.ToLower(substr))
		},
		"startsWith": func(str, prefix string) bool {
			return strings.HasPrefix(strings.ToLower(str), strings.ToLower(prefix))
		},
		"endsWith": func(str, suffix string) bool {
			return strings.HasSuffix(strings.ToLower(str), strings.ToLower(suffix))
		},
		"lower": strings.ToLower,
		"upper": strings.ToUpper,
		"now":   time.Now,
	}
}

// prototypeEnvironment declares every variable with its type for compilation
func prototypeEnvironment(helpers map[string]any) map[string]any {
	return runtimeEnvironment(helpers, gyazo.Image{})
}

// runtimeEnvironment exposes the image fields and image-bound helpers
func runtimeEnvironment(helpers map[string]any, img gyazo.Image) map[string]any {
	env := make(map[string]any, len(helpers)+16)
	maps.Copy(env, helpers)

	var createdAt time.Time
	if img.CreatedAt != nil {
		createdAt = *img.CreatedAt
	}

	ocr := img.OCR
	if ocr == nil {
		ocr = map[string]string{}
	}

	env["Image"] = img
	env["ImageID"] = img.ImageID
	env["Type"] = img.Type
	env["URL"] = img.URL
	env["ThumbURL"] = img.ThumbURL
	env["PermalinkURL"] = img.PermalinkURL
	env["Filename"] = img.Filename()
	env["ThumbFilename"] = img.ThumbFilename()
	env["CreatedAt"] = createdAt
	env["HasCreatedAt"] = img.CreatedAt != nil
	env["OCR"] = ocr
	env["HasOCR"] = len(img.OCR) > 0
	env["ocrContains"] = createOCRContainsFunc(img.OCR)

	return env
}

func createOCRContainsFunc(ocr map[string]string) func(string) bool {
	return func(substr string) bool {
		needle := strings.ToLower(substr)
		for _, text := range ocr {
			if strings.Contains(strings.ToLower(text), needle) {
				return true
			}
		}
		return false
	}
}

// Apply returns the images of src matched by f. Paging fields are kept so a
// filtered page still reports its position.
func Apply(f Filter, src *gyazo.ImageCollection) *gyazo.ImageCollection {
	out := &gyazo.ImageCollection{
		TotalCount:  src.TotalCount,
		CurrentPage: src.CurrentPage,
		PerPage:     src.PerPage,
		UserType:    src.UserType,
	}
	for _, img := range src.Images {
		if f == nil || f.Match(img) {
			out.Images = append(out.Images, img)
		}
	}
	return out
}
