package amazon

import (
	"testing"
	"time"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"￥3,400", 3400, true},
		{"$12.99", 12.99, true},
		{"  1,234,567円 ", 1234567, true},
		{"", 0, false},
		{"currently unavailable", 0, false},
		{"Now, ￥980", 980, true},
		{"￥0", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePrice(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parsePrice(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseSellerCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"New (5) from ￥3,400", 5, true},
		{"新品の出品：（12）", 12, true},
		{"出品者 3 件", 3, true},
		{"See all 1 offers", 1, true},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseSellerCount(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseSellerCount(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestParseShipDays(t *testing.T) {
	now := time.Date(2026, time.October, 16, 15, 0, 0, 0, time.UTC)
	tests := []struct {
		in   string
		want int
		ok   bool
	}{
		{"明日 10月17日 にお届け", 1, true},
		{"FREE delivery Today", 0, true},
		{"お届け日: 10月20日", 4, true},
		{"お届け日: 1月2日", 78, true},
		{"通常3～5日以内に発送します", 5, true},
		{"Usually ships within 2 days", 2, true},
		{"", 0, false},
		{"在庫切れ", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseShipDays(tt.in, now)
		if got != tt.want || ok != tt.ok {
			t.Errorf("parseShipDays(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestToSourceInfo(t *testing.T) {
	now := time.Date(2026, time.October, 16, 9, 0, 0, 0, time.UTC)
	info := toSourceInfo("B0TEST0001", detailData{
		Title:    "  UV Sunscreen SPF50  ",
		Price:    "￥2,500",
		Prime:    true,
		Sellers:  "New (4) from ￥2,500",
		Delivery: "お届け日: 10月18日",
	}, now)

	if info.Title != "UV Sunscreen SPF50" {
		t.Errorf("Title = %q", info.Title)
	}
	if !info.HasPrice() || *info.Price != 2500 {
		t.Errorf("Price = %v", info.Price)
	}
	if info.SellerCount == nil || *info.SellerCount != 4 {
		t.Errorf("SellerCount = %v", info.SellerCount)
	}
	if info.ShipDays == nil || *info.ShipDays != 2 {
		t.Errorf("ShipDays = %v", info.ShipDays)
	}
	if info.IsPrime == nil || !*info.IsPrime {
		t.Errorf("IsPrime = %v", info.IsPrime)
	}

	bare := toSourceInfo("B0TEST0002", detailData{Title: "x"}, now)
	if bare.Price != nil || bare.SellerCount != nil || bare.ShipDays != nil || bare.IsPrime != nil {
		t.Errorf("unparsed fields should stay nil: %+v", bare)
	}
}

func TestPrimeStatus(t *testing.T) {
	tests := []struct {
		name string
		in   detailData
		want string
	}{
		{"badge found", detailData{Prime: true}, "true"},
		{"badge with prime delivery type", detailData{Prime: true, DeliveryType: "PRIME"}, "true"},
		{"no badge, no delivery type", detailData{}, "nil"},
		{"no badge, prime delivery type", detailData{DeliveryType: "Prime"}, "nil"},
		{"declared standard delivery", detailData{DeliveryType: "STANDARD"}, "false"},
	}
	for _, tt := range tests {
		got := "nil"
		if p := primeStatus(tt.in); p != nil {
			if *p {
				got = "true"
			} else {
				got = "false"
			}
		}
		if got != tt.want {
			t.Errorf("%s: primeStatus(%+v) = %s; want %s", tt.name, tt.in, got, tt.want)
		}
	}
}
