package tracing

import (
	"fmt"
	"reflect"

	"github.com/sarchlab/countersim/sim/hooking"
)

// CollectTrace lets the tracer collect the tasks reported by a domain.
func CollectTrace(domain hooking.Hookable, tracer Tracer) {
	hooks := domain.Hooks()
	for _, hook := range hooks {
		hook, ok := hook.(*traceHook)
		if ok && hook.t == tracer {
			panic(fmt.Sprintf("domain already has tracer %s",
				reflect.TypeOf(tracer)))
		}
	}

	h := traceHook{t: tracer}
	domain.AcceptHook(&h)
}

// StopTrace detaches a tracer attached with CollectTrace.
func StopTrace(domain hooking.Hookable, tracer Tracer) {
	for _, hook := range domain.Hooks() {
		if h, ok := hook.(*traceHook); ok && h.t == tracer {
			domain.RemoveHook(h)
		}
	}
}

// A traceHook is a hook that traces tasks
type traceHook struct {
	t Tracer
}

// Func calls the tracer interfaces when the hook is triggered
func (h *traceHook) Func(ctx hooking.HookCtx) {
	switch ctx.Pos {
	case hooking.HookPosTaskStart:
		item := ctx.Item.(hooking.TaskStart)
		h.t.StartTask(Task{
			ID:    item.ID,
			Kind:  item.Kind,
			What:  item.What,
			Where: item.Where,
		})
	case hooking.HookPosTaskEnd:
		item := ctx.Item.(hooking.TaskEnd)
		h.t.EndTask(Task{ID: item.ID})
	case hooking.HookPosTaskAbort:
		item := ctx.Item.(hooking.TaskAbort)
		h.t.AbortTask(Task{
			ID:          item.ID,
			Aborted:     true,
			AbortReason: item.Reason,
		})
	}
}
