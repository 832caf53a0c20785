// Package i18n holds the user-facing strings of the CLI in English and Vietnamese.
package i18n

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"

	"github.com/middrag/middrag/internal/config"
)

// Message keys are the English text.
var vietnamese = map[string]string{
	"Do nothing":                     "Không làm gì",
	"← Previous app (MRU)":           "← App trước (MRU)",
	"→ Next app (MRU)":               "→ App tiếp (MRU)",
	"Mission Control":                "Mission Control",
	"App Exposé":                     "App Exposé",
	"Show Desktop":                   "Show Desktop",
	"Launchpad":                      "Launchpad",
	"Switch Space ←":                 "Chuyển Space ←",
	"Switch Space →":                 "Chuyển Space →",
	"← Drag left":                    "← Kéo trái",
	"→ Drag right":                   "→ Kéo phải",
	"↑ Drag up":                      "↑ Kéo lên",
	"↓ Drag down":                    "↓ Kéo xuống",
	"Minimum drag: %.0f px":          "Cần kéo xa: %.0f px",
	"Trigger button: %s":             "Nút kích hoạt: %s",
	"Launch at login: %v":            "Tự khởi động cùng hệ thống: %v",
	"Status: running (PID %d)":       "Trạng thái: đang chạy (PID %d)",
	"Status: not running":            "Trạng thái: không chạy",
	"Already running, exiting.":      "Đã có instance đang chạy, thoát.",
	"Started in background (PID %d)": "Đã khởi động nền (PID %d)",
	"Logs: %s":                       "Nhật ký: %s",
	"Stopping (PID %d)...":           "Đang dừng (PID %d)...",
	"Stopped":                        "Đã dừng",
	"Gesture engine: %s":             "Gesture engine: %s",
	"waiting for input permission":   "chờ quyền theo dõi chuột",
	"running":                        "đang chạy",
}

var actionLabels = map[config.Action]string{
	config.ActionNone:             "Do nothing",
	config.ActionSwitchPrevApp:    "← Previous app (MRU)",
	config.ActionSwitchNextApp:    "→ Next app (MRU)",
	config.ActionMissionControl:   "Mission Control",
	config.ActionAppExpose:        "App Exposé",
	config.ActionShowDesktop:      "Show Desktop",
	config.ActionLaunchpad:        "Launchpad",
	config.ActionSwitchSpaceLeft:  "Switch Space ←",
	config.ActionSwitchSpaceRight: "Switch Space →",
}

var cat = build()

func build() catalog.Catalog {
	b := catalog.NewBuilder(catalog.Fallback(language.English))
	for key, vi := range vietnamese {
		_ = b.SetString(language.English, key, key)
		_ = b.SetString(language.Vietnamese, key, vi)
	}
	return b
}

// NewPrinter returns a printer for lang as returned by config.ResolveLanguage.
// Anything but Vietnamese prints English.
func NewPrinter(lang string) *message.Printer {
	tag := language.English
	if base, _ := language.Make(lang).Base(); base.String() == "vi" {
		tag = language.Vietnamese
	}
	return message.NewPrinter(tag, message.Catalog(cat))
}

// DirectionLabel returns the settings label of a drag direction.
func DirectionLabel(p *message.Printer, dir string) string {
	switch dir {
	case "left":
		return p.Sprintf("← Drag left")
	case "right":
		return p.Sprintf("→ Drag right")
	case "up":
		return p.Sprintf("↑ Drag up")
	case "down":
		return p.Sprintf("↓ Drag down")
	}
	return dir
}

// ActionLabel returns the display name of a.
func ActionLabel(p *message.Printer, a config.Action) string {
	key, ok := actionLabels[a]
	if !ok {
		return a.String()
	}
	return p.Sprintf(key)
}
