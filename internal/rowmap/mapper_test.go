package rowmap

import (
	"testing"

	"github.com/iWorld-y/propai/internal/sheet"
)

func TestMap_VietnameseHeaders(t *testing.T) {
	rec := sheet.Record{
		{Header: "STT", Value: "1"},
		{Header: "Địa chỉ", Value: "123 Lê Lợi, Q1"},
		{Header: "Giá bán (tỷ)", Value: "25,5 tỷ"},
		{Header: "Diện tích", Value: 80.0},
		{Header: "Loại hình", Value: "Căn hộ"},
		{Header: "Mô tả", Value: "View sông"},
		{Header: "Link Google Maps", Value: "https://maps.google.com/?q=1"},
	}
	got := Map(rec)
	if got.Address != "123 Lê Lợi, Q1" {
		t.Errorf("Address = %q", got.Address)
	}
	if got.Price != 25.5 {
		t.Errorf("Price = %v, want 25.5", got.Price)
	}
	if got.Area != 80 {
		t.Errorf("Area = %v, want 80", got.Area)
	}
	if got.Type != "Căn hộ" || got.Description != "View sông" {
		t.Errorf("Type/Description = %q/%q", got.Type, got.Description)
	}
	if got.LocationURL != "https://maps.google.com/?q=1" {
		t.Errorf("LocationURL = %q", got.LocationURL)
	}
}

func TestMap_AddressIdentityCaseInsensitive(t *testing.T) {
	values := []string{"  12 Nguyễn Huệ  ", "Lô A-5", "", "ĐƯỜNG 3/2"}
	headers := []string{"ADDRESS", "Property Address", "Vị Trí", "LOCATION (district)"}
	for _, h := range headers {
		for _, v := range values {
			if v == "" {
				continue
			}
			got := Map(sheet.Record{{Header: h, Value: v}})
			if got.Address != v {
				t.Errorf("Map(%q=%q).Address = %q, want identity", h, v, got.Address)
			}
		}
	}
}

func TestMap_Defaults(t *testing.T) {
	got := Map(sheet.Record{{Header: "foo", Value: "bar"}})
	if got.Address != "" || got.Description != "" || got.LocationURL != "" {
		t.Errorf("text defaults = %+v", got)
	}
	if got.Type != DefaultType {
		t.Errorf("Type = %q, want %q", got.Type, DefaultType)
	}
	if got.Price != 0 || got.Area != 0 {
		t.Errorf("numeric defaults = %v/%v", got.Price, got.Area)
	}

	// 命中的列为空时同样回退默认值
	got = Map(sheet.Record{{Header: "Loại", Value: " "}})
	if got.Type != DefaultType {
		t.Errorf("empty type column: Type = %q", got.Type)
	}
}

func TestMap_FirstMatchingColumnWins(t *testing.T) {
	rec := sheet.Record{
		{Header: "Location", Value: "first"},
		{Header: "Address", Value: "second"},
	}
	if got := Map(rec).Address; got != "first" {
		t.Errorf("Address = %q, want first", got)
	}
}

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"25,5 tỷ", 25.5},
		{"20", 20},
		{"$1,500,000", 1500000},
		{"12.5 tỷ VND", 12.5},
		{"1.500.000 đ", 1.5},
		{"80 m2", 802},
		{"khoảng ~ 7.", 7},
		{"liên hệ", 0},
		{"", 0},
		{".", 0},
		{"-3", 3},
	}
	for _, tt := range tests {
		if got := ParseNumber(tt.in); got != tt.want {
			t.Errorf("ParseNumber(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestMap_NativeNumbers(t *testing.T) {
	got := Map(sheet.Record{{Header: "Price", Value: 3}, {Header: "Area (m2)", Value: int64(120)}})
	if got.Price != 3 || got.Area != 120 {
		t.Errorf("Price/Area = %v/%v", got.Price, got.Area)
	}
}
