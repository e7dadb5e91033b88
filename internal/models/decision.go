package models

type UploadRequest struct {
	KnowledgeBaseID string
	Uploader        User
	Name            string
	Visibility      Visibility
	// Force confirms an admin upload past a detected duplicate.
	Force  bool
	DryRun bool
}

type State string

const (
	StateReceived         State = "RECEIVED"
	StateHashed           State = "HASHED"
	StateNew              State = "NEW"
	StateVisibleDuplicate State = "VISIBLE_DUPLICATE"
	StateHiddenDuplicate  State = "HIDDEN_DUPLICATE"
	StateResolved         State = "RESOLVED"
	StateDenied           State = "DENIED"
)

type MatchKind int

const (
	NoMatch MatchKind = iota
	VisibleMatch
	HiddenMatch
)

func (k MatchKind) String() string {
	switch k {
	case NoMatch:
		return "no_match"
	case VisibleMatch:
		return "visible_match"
	case HiddenMatch:
		return "hidden_match"
	default:
		return "unknown"
	}
}

// Branch is the intermediate orchestrator state a match kind leads to.
func (k MatchKind) Branch() State {
	switch k {
	case VisibleMatch:
		return StateVisibleDuplicate
	case HiddenMatch:
		return StateHiddenDuplicate
	default:
		return StateNew
	}
}

type Match struct {
	Kind     MatchKind
	Document *Document
}

type Action string

const (
	ActionCreate        Action = "create"
	ActionReuseExisting Action = "reuse_existing"
	ActionReject        Action = "reject"
)

type ErrorKind string

const (
	ErrKindDuplicateVisibleConflict ErrorKind = "duplicate_visible_conflict"
	ErrKindQuotaExceeded            ErrorKind = "quota_exceeded"
	ErrKindStorageConflict          ErrorKind = "storage_conflict"
	ErrKindHashComputationFailure   ErrorKind = "hash_computation_failure"
	ErrKindLockTimeout              ErrorKind = "lock_timeout"
)

type QuotaUsage struct {
	Used   int  `json:"used"`
	Limit  int  `json:"limit"`
	Exempt bool `json:"exempt"`
}

type Verdict struct {
	Action               Action      `json:"action"`
	Document             *Document   `json:"document,omitempty"`
	ErrorKind            ErrorKind   `json:"error_kind,omitempty"`
	Message              string      `json:"message,omitempty"`
	Branch               State       `json:"branch,omitempty"`
	State                State       `json:"state"`
	Quota                *QuotaUsage `json:"quota,omitempty"`
	RequiresConfirmation bool        `json:"requires_confirmation,omitempty"`
	Retryable            bool        `json:"retryable,omitempty"`
	DryRun               bool        `json:"dry_run,omitempty"`
}

func (v *Verdict) IsRejected() bool {
	return v.Action == ActionReject
}
