package models

import (
	"strings"
	"testing"
)

func TestSettingsPatchApply(t *testing.T) {
	theme := "dark"
	useLocal := false
	limit := 0

	got := SettingsPatch{Theme: &theme, UseLocalLLM: &useLocal, MaxHistoryLength: &limit}.Apply(DefaultSettings())

	want := DefaultSettings()
	want.Theme = "dark"
	want.UseLocalLLM = false
	want.MaxHistoryLength = 0
	if got != want {
		t.Errorf("Apply() = %+v, want %+v", got, want)
	}

	if got := (SettingsPatch{}).Apply(DefaultSettings()); got != DefaultSettings() {
		t.Errorf("empty patch changed settings: %+v", got)
	}
}

func TestTextLengthAndExcerpt(t *testing.T) {
	p := &PageContent{Text: "héllo wörld"}

	if got := p.TextLength(); got != 11 {
		t.Errorf("TextLength() = %d, want 11 characters", got)
	}
	if got := p.Excerpt(5); got != "héllo" {
		t.Errorf("Excerpt(5) = %q, want héllo", got)
	}
	if got := p.Excerpt(100); got != p.Text {
		t.Errorf("Excerpt(100) = %q, want full text", got)
	}

	var nilPage *PageContent
	if got := nilPage.TextLength(); got != 0 {
		t.Errorf("nil TextLength() = %d, want 0", got)
	}
}

func TestProductSummary(t *testing.T) {
	price, rating, reviews := 19.5, 4.5, 12
	info := &ProductInfo{
		Name:         "Widget",
		Price:        &price,
		Currency:     "USD",
		Rating:       &rating,
		ReviewCount:  &reviews,
		Availability: AvailabilityUnknown,
	}

	got := info.ProductSummary()
	for _, want := range []string{"- Name: Widget", "- Price: USD 19.5", "- Rating: 4.5/5 (12 reviews)"} {
		if !strings.Contains(got, want) {
			t.Errorf("ProductSummary() = %q, missing %q", got, want)
		}
	}
	if strings.Contains(got, "Availability") {
		t.Errorf("ProductSummary() = %q, unknown availability should be omitted", got)
	}

	var none *ProductInfo
	if none.ProductSummary() != "" {
		t.Error("nil ProductSummary() should be empty")
	}
}
