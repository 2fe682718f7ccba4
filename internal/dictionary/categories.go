package dictionary

import (
	"sort"
	"strings"
)

// Category groups related CSS properties
type Category string

// Property categories for organizing CSS properties
const (
	CategoryVisual     Category = "Visual"
	CategoryLayout     Category = "Layout"
	CategoryTypography Category = "Typography"
	CategoryEffects    Category = "Effects"
	CategoryTokens     Category = "Tokens"
	CategoryInternal   Category = "Internal"
)

// propertyCategories maps CSS property names to categories. It doubles as the
// catalogue of properties the default dictionary knows about.
var propertyCategories = map[string]Category{
	// Visual
	"accent-color":               CategoryVisual,
	"appearance":                 CategoryVisual,
	"background":                 CategoryVisual,
	"background-attachment":      CategoryVisual,
	"background-clip":            CategoryVisual,
	"background-color":           CategoryVisual,
	"background-image":           CategoryVisual,
	"background-origin":          CategoryVisual,
	"background-position":        CategoryVisual,
	"background-repeat":          CategoryVisual,
	"background-size":            CategoryVisual,
	"border":                     CategoryVisual,
	"border-block":               CategoryVisual,
	"border-bottom":              CategoryVisual,
	"border-bottom-left-radius":  CategoryVisual,
	"border-bottom-right-radius": CategoryVisual,
	"border-collapse":            CategoryVisual,
	"border-color":               CategoryVisual,
	"border-inline":              CategoryVisual,
	"border-left":                CategoryVisual,
	"border-radius":              CategoryVisual,
	"border-right":               CategoryVisual,
	"border-spacing":             CategoryVisual,
	"border-style":               CategoryVisual,
	"border-top":                 CategoryVisual,
	"border-top-left-radius":     CategoryVisual,
	"border-top-right-radius":    CategoryVisual,
	"border-width":               CategoryVisual,
	"box-shadow":                 CategoryVisual,
	"caret-color":                CategoryVisual,
	"color":                      CategoryVisual,
	"cursor":                     CategoryVisual,
	"fill":                       CategoryVisual,
	"list-style":                 CategoryVisual,
	"opacity":                    CategoryVisual,
	"outline":                    CategoryVisual,
	"outline-color":              CategoryVisual,
	"outline-offset":             CategoryVisual,
	"outline-style":              CategoryVisual,
	"outline-width":              CategoryVisual,
	"pointer-events":             CategoryVisual,
	"stroke":                     CategoryVisual,
	"stroke-width":               CategoryVisual,
	"user-select":                CategoryVisual,
	"visibility":                 CategoryVisual,

	// Layout
	"align-content":         CategoryLayout,
	"align-items":           CategoryLayout,
	"align-self":            CategoryLayout,
	"aspect-ratio":          CategoryLayout,
	"block-size":            CategoryLayout,
	"bottom":                CategoryLayout,
	"box-sizing":            CategoryLayout,
	"column-gap":            CategoryLayout,
	"columns":               CategoryLayout,
	"container":             CategoryLayout,
	"container-name":        CategoryLayout,
	"container-type":        CategoryLayout,
	"display":               CategoryLayout,
	"flex":                  CategoryLayout,
	"flex-basis":            CategoryLayout,
	"flex-direction":        CategoryLayout,
	"flex-flow":             CategoryLayout,
	"flex-grow":             CategoryLayout,
	"flex-shrink":           CategoryLayout,
	"flex-wrap":             CategoryLayout,
	"float":                 CategoryLayout,
	"gap":                   CategoryLayout,
	"grid":                  CategoryLayout,
	"grid-area":             CategoryLayout,
	"grid-auto-columns":     CategoryLayout,
	"grid-auto-flow":        CategoryLayout,
	"grid-auto-rows":        CategoryLayout,
	"grid-column":           CategoryLayout,
	"grid-row":              CategoryLayout,
	"grid-template-areas":   CategoryLayout,
	"grid-template-columns": CategoryLayout,
	"grid-template-rows":    CategoryLayout,
	"height":                CategoryLayout,
	"inline-size":           CategoryLayout,
	"inset":                 CategoryLayout,
	"inset-block":           CategoryLayout,
	"inset-inline":          CategoryLayout,
	"justify-content":       CategoryLayout,
	"justify-items":         CategoryLayout,
	"justify-self":          CategoryLayout,
	"left":                  CategoryLayout,
	"margin":                CategoryLayout,
	"margin-block":          CategoryLayout,
	"margin-bottom":         CategoryLayout,
	"margin-inline":         CategoryLayout,
	"margin-left":           CategoryLayout,
	"margin-right":          CategoryLayout,
	"margin-top":            CategoryLayout,
	"max-height":            CategoryLayout,
	"max-width":             CategoryLayout,
	"min-height":            CategoryLayout,
	"min-width":             CategoryLayout,
	"object-fit":            CategoryLayout,
	"object-position":       CategoryLayout,
	"order":                 CategoryLayout,
	"overflow":              CategoryLayout,
	"overflow-x":            CategoryLayout,
	"overflow-y":            CategoryLayout,
	"padding":               CategoryLayout,
	"padding-block":         CategoryLayout,
	"padding-bottom":        CategoryLayout,
	"padding-inline":        CategoryLayout,
	"padding-left":          CategoryLayout,
	"padding-right":         CategoryLayout,
	"padding-top":           CategoryLayout,
	"place-content":         CategoryLayout,
	"place-items":           CategoryLayout,
	"position":              CategoryLayout,
	"right":                 CategoryLayout,
	"row-gap":               CategoryLayout,
	"top":                   CategoryLayout,
	"vertical-align":        CategoryLayout,
	"width":                 CategoryLayout,
	"z-index":               CategoryLayout,

	// Typography
	"content":              CategoryTypography,
	"font":                 CategoryTypography,
	"font-family":          CategoryTypography,
	"font-size":            CategoryTypography,
	"font-style":           CategoryTypography,
	"font-variant":         CategoryTypography,
	"font-variant-numeric": CategoryTypography,
	"font-weight":          CategoryTypography,
	"hyphens":              CategoryTypography,
	"letter-spacing":       CategoryTypography,
	"line-height":          CategoryTypography,
	"text-align":           CategoryTypography,
	"text-decoration":      CategoryTypography,
	"text-indent":          CategoryTypography,
	"text-overflow":        CategoryTypography,
	"text-shadow":          CategoryTypography,
	"text-transform":       CategoryTypography,
	"white-space":          CategoryTypography,
	"word-break":           CategoryTypography,
	"word-spacing":         CategoryTypography,
	"word-wrap":            CategoryTypography,

	// Effects
	"animation":                  CategoryEffects,
	"animation-delay":            CategoryEffects,
	"animation-direction":        CategoryEffects,
	"animation-duration":         CategoryEffects,
	"animation-fill-mode":        CategoryEffects,
	"animation-iteration-count":  CategoryEffects,
	"animation-name":             CategoryEffects,
	"animation-play-state":       CategoryEffects,
	"animation-timing-function":  CategoryEffects,
	"backdrop-filter":            CategoryEffects,
	"clip-path":                  CategoryEffects,
	"filter":                     CategoryEffects,
	"mask":                       CategoryEffects,
	"mix-blend-mode":             CategoryEffects,
	"rotate":                     CategoryEffects,
	"scale":                      CategoryEffects,
	"transform":                  CategoryEffects,
	"transform-origin":           CategoryEffects,
	"transition":                 CategoryEffects,
	"transition-delay":           CategoryEffects,
	"transition-duration":        CategoryEffects,
	"transition-property":        CategoryEffects,
	"transition-timing-function": CategoryEffects,
	"translate":                  CategoryEffects,
	"will-change":                CategoryEffects,
}

// categorizeProperty determines the category of a CSS property
func categorizeProperty(name string) Category {
	if cat, exists := propertyCategories[name]; exists {
		return cat
	}

	if strings.HasPrefix(name, "--") {
		return CategoryTokens
	}

	if strings.HasPrefix(name, "-webkit-") ||
		strings.HasPrefix(name, "-moz-") ||
		strings.HasPrefix(name, "-ms-") ||
		strings.HasPrefix(name, "-o-") {
		return CategoryInternal
	}

	if strings.HasPrefix(name, "flex-") || strings.HasPrefix(name, "grid-") {
		return CategoryLayout
	}

	if strings.HasPrefix(name, "border-") {
		return CategoryVisual
	}

	if strings.HasPrefix(name, "padding-") || strings.HasPrefix(name, "margin-") {
		return CategoryLayout
	}

	// Default to Layout for unknown properties
	return CategoryLayout
}

// isTokenValue checks if a value uses design tokens
func isTokenValue(value string) bool {
	return strings.Contains(value, "var(--")
}

// CategorizedProperty is a declaration with its category
type CategorizedProperty struct {
	Name     string
	Value    string
	Category Category
	IsToken  bool // True if value references a custom property
}

// Categorize groups declarations by category, sorted by name within each group.
func Categorize(props map[string]string) map[Category][]CategorizedProperty {
	result := make(map[Category][]CategorizedProperty)

	for name, value := range props {
		cat := categorizeProperty(name)
		result[cat] = append(result[cat], CategorizedProperty{
			Name:     name,
			Value:    value,
			Category: cat,
			IsToken:  isTokenValue(value),
		})
	}

	for cat := range result {
		sort.Slice(result[cat], func(i, j int) bool {
			return result[cat][i].Name < result[cat][j].Name
		})
	}

	return result
}
