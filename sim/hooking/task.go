package hooking

// A list of hook poses for the hooks to apply to
var (
	HookPosTaskStart = &HookPos{Name: "HookPosTaskStart"}
	HookPosTaskEnd   = &HookPos{Name: "HookPosTaskEnd"}
	HookPosTaskAbort = &HookPos{Name: "HookPosTaskAbort"}
)

// TaskStart is data that is passed to the hook when a task starts.
type TaskStart struct {
	ID    string
	Kind  string
	What  string
	Where string
}

// TaskEnd is data that is passed to the hook when a task ends.
type TaskEnd struct {
	ID string
}

// TaskAbort is passed to the hook when a started task is dropped before it
// could end.
type TaskAbort struct {
	ID     string
	Reason string
}
