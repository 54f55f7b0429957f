package banner

import (
	"crudload/internal/tui/styles"

	"github.com/charmbracelet/lipgloss"
)

func GetString() string {
	style := lipgloss.DefaultRenderer().NewStyle().
		Foreground(styles.ColorBanner).
		Bold(true)

	ascii := `
  ___ ___ _   _ ___  _                _ 
 / __| _ \ | | |   \| |   ___  __ _ __| |
| (__|   / |_| | |) | |__/ _ \/ _' / _' |
 \___|_|_\\___/|___/|____\___/\__,_\__,_|`

	return "\n" + style.Render(ascii) + "\n"
}
