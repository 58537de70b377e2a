package errors

// Template defines a registered error type.
type Template struct {
	Category   Category
	Message    string
	Detail     string
	Suggestion string
}

// Registered error codes.
const (
	CodeMissingContainer = "E100"
	CodeAlreadyMounted   = "E101"
	CodeRemount          = "E102"
	CodeHookFailed       = "E110"
	CodeRenderFailed     = "E111"
	CodePanic            = "E112"
	CodePatchFailed      = "E120"
	CodePreserveMissing  = "E121"
	CodeJobFailed        = "E130"
	CodeNotGetter        = "E200"
	CodeInvalidWatcher   = "E201"
	CodeUnknownField     = "E202"
	CodeFieldType        = "E203"
	CodeInvalidConfig    = "E300"
	CodeConfigNotFound   = "E301"
)

// Sentinels for errors.Is. They carry only a code, so they match any
// *Error with the same code.
var (
	ErrMissingContainer = &Error{Code: CodeMissingContainer}
	ErrNotGetter        = &Error{Code: CodeNotGetter}
	ErrUnknownField     = &Error{Code: CodeUnknownField}
	ErrFieldType        = &Error{Code: CodeFieldType}
	ErrConfigNotFound   = &Error{Code: CodeConfigNotFound}
)

// registry maps error codes to their templates.
var registry = map[string]Template{
	// ============================================
	// Caller Misuse (E100-E109)
	// ============================================

	CodeMissingContainer: {
		Category:   CategoryMisuse,
		Message:    "Mount called without a container",
		Detail:     "A component must be mounted into an existing parent node.",
		Suggestion: "Pass the element the component should be appended to, e.g. the document body.",
	},
	CodeAlreadyMounted: {
		Category: CategoryMisuse,
		Message:  "Component is already mounted",
		Detail:   "Mount was called on an instance that is mounted or still mounting. The call was ignored.",
	},
	CodeRemount: {
		Category:   CategoryMisuse,
		Message:    "Component cannot be remounted",
		Detail:     "Unmount is terminal. The call was ignored.",
		Suggestion: "Construct a new instance instead of mounting an unmounted one.",
	},

	// ============================================
	// Lifecycle Errors (E110-E119)
	// ============================================

	CodeHookFailed: {
		Category: CategoryLifecycle,
		Message:  "Lifecycle hook failed",
		Detail:   "A lifecycle hook returned an error.",
	},
	CodeRenderFailed: {
		Category: CategoryRender,
		Message:  "Render failed",
		Detail:   "The component's Render method panicked or returned no tree.",
	},
	CodePanic: {
		Category: CategoryLifecycle,
		Message:  "Panic recovered",
	},

	// ============================================
	// Reconciliation Errors (E120-E129)
	// ============================================

	CodePatchFailed: {
		Category: CategoryPatch,
		Message:  "Patch failed",
		Detail:   "The patch collaborator could not reconcile the new tree against the live nodes.",
	},
	CodePreserveMissing: {
		Category: CategoryPatch,
		Message:  "Preserved mount target missing",
		Detail:   "A preserved subtree was captured but no element with the same marker exists after the patch. Its children were dropped.",
	},

	// ============================================
	// Scheduler Errors (E130-E139)
	// ============================================

	CodeJobFailed: {
		Category: CategoryScheduler,
		Message:  "Scheduled job failed",
	},

	// ============================================
	// Reactive Errors (E200-E209)
	// ============================================

	CodeNotGetter: {
		Category:   CategoryReactive,
		Message:    "Computed member is not a getter",
		Detail:     "Computed values must wrap a method that takes no arguments and returns exactly one value.",
		Suggestion: "Declare the member as func (c *T) Name() R.",
	},
	CodeInvalidWatcher: {
		Category:   CategoryReactive,
		Message:    "Invalid watcher",
		Detail:     "Watchers must be methods that accept the new and the old value.",
		Suggestion: "Declare the watcher as func (c *T) OnName(newValue, oldValue V).",
	},
	CodeUnknownField: {
		Category: CategoryReactive,
		Message:  "Unknown reactive field",
	},
	CodeFieldType: {
		Category: CategoryReactive,
		Message:  "Value type does not match reactive field",
	},

	// ============================================
	// Configuration Errors (E300-E309)
	// ============================================

	CodeInvalidConfig: {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
	},
	CodeConfigNotFound: {
		Category:   CategoryConfig,
		Message:    "Configuration file not found",
		Suggestion: "Create kinetic.toml, kinetic.yaml, or kinetic.json, or pass --config.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
