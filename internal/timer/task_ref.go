package timer

import (
	"strings"
	"time"

	"github.com/hitoshi/launchpad/internal/model"
)

// NewTaskRef はリクエストのtask_idとcustom_task_nameから作業参照を組み立てる。
// task_idが0またはnull、custom_task_nameが空白のみまたはnullの場合は未指定とみなす。
// 両方が指定された場合はINVALID_TASK_REFを返す。
func NewTaskRef(taskID *int64, label *string) (model.TaskRef, error) {
	hasTask := taskID != nil && *taskID != 0
	hasLabel := label != nil && strings.TrimSpace(*label) != ""

	switch {
	case hasTask && hasLabel:
		return model.NoTask(), model.NewInvalidTaskRefError("task_idとcustom_task_nameは同時に指定できません")
	case hasTask:
		return model.PredefinedTask(*taskID), nil
	case hasLabel:
		return model.CustomTask(*label), nil
	default:
		return model.NoTask(), nil
	}
}

// ElapsedSeconds は開始時刻からnowまでの経過秒数を切り捨てで返す。負にはならない。
func ElapsedSeconds(start, now time.Time) int64 {
	d := now.Sub(start)
	if d <= 0 {
		return 0
	}
	return int64(d / time.Second)
}
