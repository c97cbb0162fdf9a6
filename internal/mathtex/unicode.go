package mathtex

import (
	"errors"
	"strings"
	"unicode"

	"github.com/mattn/go-runewidth"

	"github.com/dgallion1/richtext/internal/style"
)

var errEmptyFormula = errors.New("empty formula")

var symbols = map[string]string{
	"alpha": "α", "beta": "β", "gamma": "γ", "delta": "δ", "epsilon": "ε",
	"zeta": "ζ", "eta": "η", "theta": "θ", "iota": "ι", "kappa": "κ",
	"lambda": "λ", "mu": "μ", "nu": "ν", "xi": "ξ", "pi": "π", "rho": "ρ",
	"sigma": "σ", "tau": "τ", "upsilon": "υ", "phi": "φ", "chi": "χ",
	"psi": "ψ", "omega": "ω",
	"Gamma": "Γ", "Delta": "Δ", "Theta": "Θ", "Lambda": "Λ", "Xi": "Ξ",
	"Pi": "Π", "Sigma": "Σ", "Phi": "Φ", "Psi": "Ψ", "Omega": "Ω",
	"sum": "∑", "prod": "∏", "int": "∫", "oint": "∮", "partial": "∂",
	"nabla": "∇", "infty": "∞", "sqrt": "√", "pm": "±", "mp": "∓",
	"times": "×", "div": "÷", "cdot": "·", "leq": "≤", "le": "≤",
	"geq": "≥", "ge": "≥", "neq": "≠", "ne": "≠", "approx": "≈",
	"equiv": "≡", "sim": "∼", "propto": "∝", "in": "∈", "notin": "∉",
	"subset": "⊂", "supset": "⊃", "subseteq": "⊆", "supseteq": "⊇",
	"cup": "∪", "cap": "∩", "emptyset": "∅", "forall": "∀", "exists": "∃",
	"neg": "¬", "land": "∧", "lor": "∨", "to": "→", "rightarrow": "→",
	"leftarrow": "←", "Rightarrow": "⇒", "Leftarrow": "⇐",
	"leftrightarrow": "↔", "Leftrightarrow": "⇔", "mapsto": "↦",
	"ldots": "…", "cdots": "⋯", "quad": " ", "qquad": "  ", ",": " ",
	";": " ", "!": "", " ": " ", "left": "", "right": "", "{": "{", "}": "}",
}

var superscripts = map[rune]rune{
	'0': '⁰', '1': '¹', '2': '²', '3': '³', '4': '⁴', '5': '⁵', '6': '⁶',
	'7': '⁷', '8': '⁸', '9': '⁹', '+': '⁺', '-': '⁻', '=': '⁼', '(': '⁽',
	')': '⁾', 'n': 'ⁿ', 'i': 'ⁱ',
}

var subscripts = map[rune]rune{
	'0': '₀', '1': '₁', '2': '₂', '3': '₃', '4': '₄', '5': '₅', '6': '₆',
	'7': '₇', '8': '₈', '9': '₉', '+': '₊', '-': '₋', '=': '₌', '(': '₍',
	')': '₎', 'a': 'ₐ', 'e': 'ₑ', 'o': 'ₒ', 'x': 'ₓ', 'i': 'ᵢ', 'j': 'ⱼ',
	'n': 'ₙ',
}

// UnicodeTypesetter approximates LaTeX with Unicode symbols and sizes the
// result in character cells scaled by font size.
type UnicodeTypesetter struct{}

func (UnicodeTypesetter) Typeset(latex string, display bool, fontSize float64, _ style.Color) (Image, error) {
	src := strings.TrimSpace(latex)
	if src == "" {
		return Image{}, errEmptyFormula
	}
	text := ToUnicode(src)
	if fontSize <= 0 {
		fontSize = 16
	}
	lineHeight := fontSize * 1.2
	if display {
		lineHeight = fontSize * 1.6
	}
	return Image{
		Text:     text,
		Width:    float64(runewidth.StringWidth(text)) * fontSize * 0.6,
		Height:   lineHeight,
		Baseline: lineHeight * 0.8,
	}, nil
}

// ToUnicode converts the subset of LaTeX it understands; unknown commands
// are kept without their backslash.
func ToUnicode(src string) string {
	var sb strings.Builder
	rs := []rune(src)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		switch r {
		case '\\':
			j := i + 1
			for j < len(rs) && unicode.IsLetter(rs[j]) {
				j++
			}
			if j == i+1 && j < len(rs) {
				j++
			}
			name := string(rs[i+1 : j])
			switch name {
			case "frac":
				num, next := group(rs, j)
				den, next2 := group(rs, next)
				sb.WriteString(ToUnicode(num) + "/" + ToUnicode(den))
				i = next2 - 1
				continue
			case "sqrt":
				arg, next := group(rs, j)
				sb.WriteString("√(" + ToUnicode(arg) + ")")
				i = next - 1
				continue
			case "text", "mathrm", "mathbf", "mathit", "operatorname":
				arg, next := group(rs, j)
				sb.WriteString(arg)
				i = next - 1
				continue
			}
			if sym, ok := symbols[name]; ok {
				sb.WriteString(sym)
			} else {
				sb.WriteString(name)
			}
			i = j - 1
		case '^', '_':
			table := superscripts
			if r == '_' {
				table = subscripts
			}
			arg, next := group(rs, i+1)
			sb.WriteString(script(ToUnicode(arg), table, r))
			i = next - 1
		case '{', '}':
		default:
			sb.WriteRune(r)
		}
	}
	return sb.String()
}

// group returns the braced group or single rune starting at i and the index
// just past it.
func group(rs []rune, i int) (string, int) {
	for i < len(rs) && rs[i] == ' ' {
		i++
	}
	if i >= len(rs) {
		return "", i
	}
	if rs[i] != '{' {
		if rs[i] == '\\' {
			j := i + 1
			for j < len(rs) && unicode.IsLetter(rs[j]) {
				j++
			}
			return string(rs[i:j]), j
		}
		return string(rs[i]), i + 1
	}
	depth := 0
	for j := i; j < len(rs); j++ {
		switch rs[j] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return string(rs[i+1 : j]), j + 1
			}
		}
	}
	return string(rs[i+1:]), len(rs)
}

func script(s string, table map[rune]rune, marker rune) string {
	var sb strings.Builder
	for _, r := range s {
		m, ok := table[r]
		if !ok {
			return string(marker) + "(" + s + ")"
		}
		sb.WriteRune(m)
	}
	return sb.String()
}
