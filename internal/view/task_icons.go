package view

import (
	"github.com/planted/internal/db"
)

type taskIconAsset struct {
	Type  db.TaskType
	SVG   string
	Label string
}

var (
	taskIconDefinitions = []taskIconAsset{
		{Type: db.TaskWatering, Label: "浇水", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M12 3.25s6 6.6 6 10.75a6 6 0 1 1-12 0C6 9.85 12 3.25 12 3.25Z"/><path d="M9.5 14a2.5 2.5 0 0 0 2.5 2.5"/></svg>`},
		{Type: db.TaskFertilizing, Label: "施肥", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M12 21V11m0 0c0-3.5-2.5-6-6.5-6C5.5 8.5 8 11 12 11Zm0 0c0-3.5 2.5-6 6.5-6C18.5 8.5 16 11 12 11Z"/><path d="M8 21h8"/></svg>`},
		{Type: db.TaskHarvest, Label: "采收", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M4.5 10.5h15l-1.2 8.4a2.25 2.25 0 0 1-2.227 1.932H7.927A2.25 2.25 0 0 1 5.7 18.9L4.5 10.5Z"/><path d="M8.25 10.5C8.25 6.75 9.9 3.75 12 3.75s3.75 3 3.75 6.75"/></svg>`},
	}
	defaultTaskIcon = taskIconAsset{Label: "任务", SVG: `<svg viewBox="0 0 24 24" fill="none" stroke="currentColor" stroke-width="1.5" stroke-linecap="round" stroke-linejoin="round"><path d="M9 12.75 11.25 15 15 9.75M21 12a9 9 0 1 1-18 0 9 9 0 0 1 18 0Z"/></svg>`}
	taskIconLookup  = func() map[db.TaskType]taskIconAsset {
		lookup := make(map[db.TaskType]taskIconAsset, len(taskIconDefinitions))
		for _, icon := range taskIconDefinitions {
			lookup[icon.Type] = icon
		}
		return lookup
	}()
)

// TaskIcon resolves the SVG string for a task type, falling back to a generic check icon.
func TaskIcon(taskType db.TaskType) string {
	if icon, ok := taskIconLookup[taskType]; ok {
		return icon.SVG
	}
	return defaultTaskIcon.SVG
}

// TaskIconLabel returns the display label for a task type.
func TaskIconLabel(taskType db.TaskType) string {
	if icon, ok := taskIconLookup[taskType]; ok {
		return icon.Label
	}
	return defaultTaskIcon.Label
}

// SeasonLabel maps a season key to its display label.
func SeasonLabel(season string) string {
	switch season {
	case "spring":
		return "春"
	case "summer":
		return "夏"
	case "fall":
		return "秋"
	case "winter":
		return "冬"
	default:
		return season
	}
}
