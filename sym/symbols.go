// Package sym defines the glyphs used by cspace in CLI headers and log fields.
// They are stable across commands so logs stay greppable by glyph.
package sym

// Glyph string constants, one per subsystem.
const (
	AM        = "≡" // am: configuration and system settings
	Space     = "◎" // conceptual space and its point cloud
	Region    = "⬡" // convex region / category
	Index     = "⊞" // spatial index
	Category  = "❖" // category formation and boundary detection
	Similar   = "≈" // similarity engine
	Reason    = "⟶" // reasoning: analogy, inference, blending, paths
	DB        = "⊔" // snapshot storage
	Watch     = "✿" // file watcher
	Subsystem = "∙" // fallback for unnamed components
)

// SymbolToCommand maps each glyph to the CLI command group it heads.
var SymbolToCommand = map[string]string{
	AM:    "am",
	Space: "space",
	DB:    "db",
}

// CommandToSymbol is the inverse of SymbolToCommand.
var CommandToSymbol = map[string]string{
	"am":    AM,
	"space": Space,
	"db":    DB,
}

// CommandDescriptions are the short descriptions shown in CLI help.
var CommandDescriptions = map[string]string{
	"am":    "Show and validate configuration",
	"space": "Query and analyze conceptual spaces",
	"db":    "Store and load space snapshots",
}

// componentSymbols maps logger component prefixes to glyphs.
var componentSymbols = map[string]string{
	"am":         AM,
	"space":      Space,
	"region":     Region,
	"index":      Index,
	"category":   Category,
	"similarity": Similar,
	"reasoning":  Reason,
	"store":      DB,
	"db":         DB,
	"spacefile":  Watch,
}

// ForComponent returns the glyph for a logger component name such as
// "category.former". Unknown components get Subsystem.
func ForComponent(name string) string {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			name = name[:i]
			break
		}
	}
	if s, ok := componentSymbols[name]; ok {
		return s
	}
	return Subsystem
}
