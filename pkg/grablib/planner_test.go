package grablib

import "testing"

func TestPlanDecisionTable(t *testing.T) {
	const remoteSize = ContentLength(1000)

	tests := []struct {
		name         string
		local        LocalTarget
		remote       ContentLength
		skipExisting bool
		action       PlanAction
		reason       SkipReason
		fromOffset   int64
	}{
		{
			name:   "absent remote known",
			local:  LocalTarget{},
			remote: remoteSize,
			action: ActionFreshFetch,
		},
		{
			name:   "absent remote unknown",
			local:  LocalTarget{},
			remote: ContentLengthUnknown,
			action: ActionFreshFetch,
		},
		{
			name:       "partial smaller",
			local:      LocalTarget{Size: 500, Exists: true},
			remote:     remoteSize,
			action:     ActionResume,
			fromOffset: 500,
		},
		{
			name:   "exact match",
			local:  LocalTarget{Size: 1000, Exists: true},
			remote: remoteSize,
			action: ActionSkip,
			reason: SkipAlreadySatisfied,
		},
		{
			name:   "local larger",
			local:  LocalTarget{Size: 1500, Exists: true},
			remote: remoteSize,
			action: ActionRestart,
		},
		{
			name:   "present remote unknown",
			local:  LocalTarget{Size: 500, Exists: true},
			remote: ContentLengthUnknown,
			action: ActionSkip,
			reason: SkipRemoteSizeUnknown,
		},
		{
			name:   "empty but present remote unknown",
			local:  LocalTarget{Size: 0, Exists: true},
			remote: ContentLengthUnknown,
			action: ActionSkip,
			reason: SkipRemoteSizeUnknown,
		},
		{
			name:         "skip existing wins over mismatch",
			local:        LocalTarget{Size: 1, Exists: true},
			remote:       remoteSize,
			skipExisting: true,
			action:       ActionSkip,
			reason:       SkipExistingRequested,
		},
		{
			name:         "skip existing wins over unknown remote",
			local:        LocalTarget{Size: 1, Exists: true},
			remote:       ContentLengthUnknown,
			skipExisting: true,
			action:       ActionSkip,
			reason:       SkipExistingRequested,
		},
		{
			name:         "skip existing ignores absent file",
			local:        LocalTarget{},
			remote:       remoteSize,
			skipExisting: true,
			action:       ActionFreshFetch,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := Plan(tc.local, tc.remote, tc.skipExisting)
			if p.Action != tc.action {
				t.Fatalf("action = %s, want %s", p.Action, tc.action)
			}
			if p.Reason != tc.reason {
				t.Fatalf("reason = %q, want %q", p.Reason, tc.reason)
			}
			if p.FromOffset != tc.fromOffset {
				t.Fatalf("fromOffset = %d, want %d", p.FromOffset, tc.fromOffset)
			}
		})
	}
}

// Every combination of local state, remote knowledge and the
// skip-existing flag must land on exactly one well-formed plan.
func TestPlanExhaustive(t *testing.T) {
	locals := []LocalTarget{
		{},
		{Size: 0, Exists: true},
		{Size: 1, Exists: true},
		{Size: 999, Exists: true},
		{Size: 1000, Exists: true},
		{Size: 1001, Exists: true},
	}
	remotes := []ContentLength{ContentLengthUnknown, 0, 1000}
	for _, local := range locals {
		for _, remote := range remotes {
			for _, skip := range []bool{false, true} {
				p := Plan(local, remote, skip)
				switch p.Action {
				case ActionFreshFetch, ActionResume, ActionRestart:
					if p.Reason != SkipNone {
						t.Fatalf("plan(%+v, %d, %v): non-skip with reason %q",
							local, remote, skip, p.Reason)
					}
				case ActionSkip:
					if p.Reason == SkipNone {
						t.Fatalf("plan(%+v, %d, %v): skip without reason",
							local, remote, skip)
					}
				default:
					t.Fatalf("plan(%+v, %d, %v): invalid action %d",
						local, remote, skip, p.Action)
				}
				if p.Action == ActionResume && p.FromOffset != local.Size {
					t.Fatalf("plan(%+v, %d, %v): resume from %d",
						local, remote, skip, p.FromOffset)
				}
				if p.RemoteSize != remote {
					t.Fatalf("plan(%+v, %d, %v): remote size not carried",
						local, remote, skip)
				}
			}
		}
	}
}

// Planning must never touch the filesystem; it operates purely on the
// inspected snapshot.
func TestPlanIsPure(t *testing.T) {
	local := LocalTarget{Path: "/nonexistent/dir/file.bin", Size: 500, Exists: true}
	first := Plan(local, 1000, false)
	second := Plan(local, 1000, false)
	if first != second {
		t.Fatalf("same inputs produced %+v and %+v", first, second)
	}
}
