package identifier

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateSignUpScenario(t *testing.T) {
	email := input("Enter your email!")
	form := el("div", "Sign up", el("br", ""), email)
	body := el("body", "", form)
	el("html", "", el("head", ""), body)

	assert.Equal(t, []string{"enter-your-email", "sign-up"}, CandidateTexts(email))
	assert.Equal(t, "sign-up-enter-your-email", BaseIdentifier(email))
	assert.Equal(t, "0-1", IndexPath(email, body))
	assert.Equal(t, "auto-sign-up-enter-your-email-0-1", Generate(email, body))
}

func TestIndexPathStopsAtDocumentEdge(t *testing.T) {
	target := el("button", "Go")
	parent := el("div", "", el("span", ""), el("span", ""), target)
	el("root", "", parent, el("aside", ""))

	assert.Equal(t, "0-2", IndexPath(target, nil))
	assert.Equal(t, "auto-go-0-2", Generate(target, nil))
}

func TestIndexPathIsBoundedToThreeLevels(t *testing.T) {
	target := el("a", "Home")
	l1 := el("li", "", el("li", ""), target)
	l2 := el("ul", "", el("ul", ""), el("ul", ""), l1)
	l3 := el("nav", "", l2)
	l4 := el("header", "", el("div", ""), l3)
	el("body", "", l4)

	assert.Equal(t, "0-2-1", IndexPath(target, nil))
}

func TestIndexPathExcludesBoundary(t *testing.T) {
	target := el("button", "Next")
	body := el("body", "", el("p", ""), target)
	el("html", "", el("head", ""), body)

	assert.Equal(t, "1", IndexPath(target, body))
	assert.Equal(t, "1-1", IndexPath(target, nil))
}

func TestCandidateTextsDeduplicates(t *testing.T) {
	button := el("button", "Save")
	wrapper := el("div", "", button)
	el("body", "", wrapper)

	texts := CandidateTexts(button)
	require.Len(t, texts, 1)
	assert.Equal(t, "save", texts[0])
	assert.Equal(t, "auto-save-0-0", Generate(button, wrapper.parent))
}

func TestCandidateTextsDeduplicatesAfterSanitizing(t *testing.T) {
	button := el("button", "Log in!")
	el("div", "", button)

	assert.Equal(t, []string{"log-in"}, CandidateTexts(button))
}

func TestCandidateTextsKeepsDistinctParentText(t *testing.T) {
	button := el("button", "Save")
	el("div", "Profile ", button)

	assert.Equal(t, []string{"save", "profile-save"}, CandidateTexts(button))
	assert.Equal(t, "profile-save-save", BaseIdentifier(button))
}

func TestCandidateTextsSkipsEmptyElement(t *testing.T) {
	icon := el("button", "   ")
	toolbar := el("div", "Toolbar", icon)

	assert.Equal(t, []string{"toolbar"}, CandidateTexts(icon))
	assert.Equal(t, "auto-toolbar-0", Generate(icon, toolbar))
}

func TestPlaceholderPreference(t *testing.T) {
	t.Run("placeholder wins over text", func(t *testing.T) {
		search := input("Search")
		search.text = "ignored"
		assert.Equal(t, []string{"search"}, CandidateTexts(search))
	})

	t.Run("blank placeholder falls back to text", func(t *testing.T) {
		notes := el("textarea", "Notes here")
		notes.hasPlaceholder = true
		notes.placeholder = "   "
		assert.Equal(t, []string{"notes-here"}, CandidateTexts(notes))
	})

	t.Run("placeholder ignored without the capability", func(t *testing.T) {
		button := el("button", "Send")
		button.placeholder = "nope"
		assert.Equal(t, []string{"send"}, CandidateTexts(button))
	})
}

func TestBaseIdentifierTruncation(t *testing.T) {
	button := el("button", "Subscribe to our weekly newsletter")
	section := el("section", "Marketing preferences section", button)
	body := el("body", "", section)

	texts := CandidateTexts(button)
	require.Len(t, texts, 2)
	assert.Equal(t, "subscribe-to-our-wee", texts[0])
	assert.Equal(t, "marketing-preference", texts[1])

	assert.Equal(t, "marketing-preference-subscribe", BaseIdentifier(button))
	assert.Equal(t, "auto-marketing-preference-subscribe-0-0", Generate(button, body))
}

func TestGenerateRootLevelElementOmitsIndexPath(t *testing.T) {
	button := el("button", "Save")

	assert.Equal(t, "", IndexPath(button, nil))
	assert.Equal(t, "auto-save", Generate(button, nil))
}

func TestGenerateFallbackPath(t *testing.T) {
	target := el("input", "")
	grid := el("div", "", el("span", ""), el("span", ""), target)
	form := el("form", "", grid)
	body := el("body", "", form)
	el("html", "Page title", el("head", "Title"), body)

	res := Describe(target, body)
	assert.True(t, res.Fallback)
	assert.Equal(t, "", res.Base)
	assert.Equal(t, "form-0/div-0/input-2", res.Path)
	assert.Equal(t, "auto-path-form-0/div-0/input-2", res.ID)
}

func TestGenerateFallbackLowercasesTags(t *testing.T) {
	target := el("INPUT", "")
	cell := el("TD", "", el("TD", ""), target)
	row := el("TR", "", cell)
	body := el("BODY", "", el("P", ""), row)

	assert.Equal(t, "auto-path-tr-1/td-0/input-1", Generate(target, body))
}

func TestGenerateFallbackWithoutBoundary(t *testing.T) {
	t.Run("parentless element", func(t *testing.T) {
		assert.Equal(t, "auto-path-input-0", Generate(input(""), nil))
	})

	t.Run("walks to the parentless root", func(t *testing.T) {
		target := input("")
		form := el("form", "", el("label", ""), target)
		el("main", "", form)
		assert.Equal(t, "auto-path-main-0/form-0/input-1", Generate(target, nil))
	})

	t.Run("element is the boundary", func(t *testing.T) {
		body := el("body", "")
		el("html", "", el("head", ""), body)
		assert.Equal(t, "auto-path-body-1", Generate(body, body))
	})
}

func TestGeneratePositionedElement(t *testing.T) {
	link := el("a", "Docs")
	nav := el("nav", "", link)
	p := positioned{node: link, index: 4}

	assert.Equal(t, 4, SiblingIndex(p, nav))
	assert.Equal(t, "4", IndexPath(p, nil))
	assert.Equal(t, "auto-docs-4", Generate(p, nil))
}

func TestGenerateProperties(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	texts := []string{
		"", "", "   ", "OK", "Save changes", "Don't click!!", "Sign-up now",
		"Subscribe to our weekly newsletter and get news",
		"!!!", "Café", "Submit", "Submit",
	}
	tags := []string{"div", "span", "input", "button", "a", "section", "LI"}

	var all []*node
	var build func(depth int) *node
	build = func(depth int) *node {
		n := el(tags[rng.IntN(len(tags))], texts[rng.IntN(len(texts))])
		if n.tag == "input" {
			n.hasPlaceholder = true
			n.placeholder = texts[rng.IntN(len(texts))]
		}
		all = append(all, n)
		if depth == 0 {
			return n
		}
		for i := rng.IntN(4); i > 0; i-- {
			c := build(depth - 1)
			c.parent = n
			n.children = append(n.children, c)
		}
		return n
	}
	root := build(6)
	require.NotEmpty(t, all)

	for _, withBoundary := range []bool{false, true} {
		for _, n := range all {
			generate := func() Result { return Describe(n, nil) }
			if withBoundary {
				generate = func() Result { return Describe(n, root) }
			}

			res := generate()
			assert.True(t, strings.HasPrefix(res.ID, Prefix), res.ID)
			assert.Greater(t, len(res.ID), len(Prefix))
			assert.LessOrEqual(t, utf8.RuneCountInString(res.Base), BaseLimit)
			for _, text := range CandidateTexts(n) {
				assert.NotEmpty(t, text)
				assert.LessOrEqual(t, utf8.RuneCountInString(text), SegmentLimit)
			}
			if res.Fallback {
				assert.Empty(t, CandidateTexts(n))
				assert.True(t, strings.HasPrefix(res.ID, PathPrefix))
			} else {
				assert.LessOrEqual(t, len(strings.Split(res.Path, "-")), IndexLevels)
			}

			assert.Equal(t, res, generate(), "generation must be deterministic")
		}
	}
}
