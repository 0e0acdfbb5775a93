package grablib

// PlanAction is the transfer decision for one file.
type PlanAction int

const (
	// ActionFreshFetch downloads a file that has no local counterpart.
	ActionFreshFetch PlanAction = iota
	// ActionResume continues a partial local file from its current size.
	ActionResume
	// ActionRestart truncates a stale local file and fetches from zero.
	ActionRestart
	// ActionSkip leaves the local state untouched.
	ActionSkip
)

func (a PlanAction) String() string {
	switch a {
	case ActionFreshFetch:
		return "fetch"
	case ActionResume:
		return "resume"
	case ActionRestart:
		return "restart"
	case ActionSkip:
		return "skip"
	default:
		return "invalid"
	}
}

// SkipReason explains an ActionSkip decision.
type SkipReason int

const (
	SkipNone SkipReason = iota
	// SkipAlreadySatisfied: local and remote sizes match.
	SkipAlreadySatisfied
	// SkipRemoteSizeUnknown: the remote size could not be learned and a
	// local file is present; completeness cannot be verified, so the
	// local copy is kept rather than re-fetched blindly.
	SkipRemoteSizeUnknown
	// SkipExistingRequested: the skip-existing flag is set and the file
	// exists locally, whatever its size.
	SkipExistingRequested
)

func (r SkipReason) String() string {
	switch r {
	case SkipAlreadySatisfied:
		return "already complete"
	case SkipRemoteSizeUnknown:
		return "remote size unknown, keeping local file"
	case SkipExistingRequested:
		return "file exists, skip requested"
	default:
		return ""
	}
}

// TransferPlan is the outcome of reconciling local and remote state for
// one file. RemoteSize carries the probed size through to the fetch so
// progress accounting can fall back on it when the response carries no
// usable total.
type TransferPlan struct {
	Action     PlanAction
	Reason     SkipReason
	FromOffset int64
	RemoteSize ContentLength
}

// Plan decides what to do with one file given its local state, the
// probed remote size (ContentLengthUnknown when the probe failed) and
// the skip-existing flag. It is a pure function: it inspects nothing
// and writes nothing, so the same inputs always produce the same plan,
// and no file is ever deleted by planning alone. The rules, in order:
//
//  1. skip-existing set and the file exists: skip.
//  2. remote unknown, file exists: skip (cannot verify completeness).
//  3. remote unknown, no file: fetch.
//  4. remote known, no file: fetch.
//  5. local smaller than remote: resume from the local size.
//  6. local equals remote: skip, already complete.
//  7. local larger than remote: restart from zero.
func Plan(local LocalTarget, remote ContentLength, skipExisting bool) TransferPlan {
	p := TransferPlan{RemoteSize: remote}
	switch {
	case skipExisting && local.Exists:
		p.Action = ActionSkip
		p.Reason = SkipExistingRequested
	case remote.IsUnknown() && local.Exists:
		p.Action = ActionSkip
		p.Reason = SkipRemoteSizeUnknown
	case !local.Exists:
		p.Action = ActionFreshFetch
	case local.Size < remote.v():
		p.Action = ActionResume
		p.FromOffset = local.Size
	case local.Size == remote.v():
		p.Action = ActionSkip
		p.Reason = SkipAlreadySatisfied
	default:
		p.Action = ActionRestart
	}
	return p
}
