package parser

import "testing"

func TestParsePhone(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want string
	}{
		{"0551 23 45 67", "0551234567"},
		{"+213 551 234 567", "213551234567"},
		{"055-123", ""},
		{"", ""},
		{"abc", ""},
	}

	for _, c := range cases {
		if got := ParsePhone(c.in); got != c.want {
			t.Errorf("ParsePhone(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestParseMoney(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"2500", 2500},
		{"2500 DA", 2500},
		{"2 500,50", 2500.5},
		{"1.5", 1.5},
		{"", 0},
		{"gratuit", 0},
	}

	for _, c := range cases {
		if got := ParseMoney(c.in); got != c.want {
			t.Errorf("ParseMoney(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestParseWeight(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"1.5", 1.5},
		{"2,5", 2.5},
		{"0", 0},  // 真零保留
		{"", 1.0}, // 非数字才回退
		{"création", 1.0},
	}

	for _, c := range cases {
		if got := ParseWeight(c.in); got != c.want {
			t.Errorf("ParseWeight(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestSplitWilayaComposite(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in       string
		wantCode string
		wantName string
	}{
		{"16 - Alger", "16", "Alger"},
		{"5 - Batna", "05", "Batna"},
		{"31  Oran", "31", "Oran"},
		{"16", "16", ""},
		{"5", "05", ""},
		{"165", "", "165"},
		{"Tizi Ouzou", "", "Tizi Ouzou"},
		{"الجزائر", "", "الجزائر"},
	}

	for _, c := range cases {
		code, name := SplitWilayaComposite(c.in)
		if code != c.wantCode || name != c.wantName {
			t.Errorf("SplitWilayaComposite(%q) = %q/%q, want %q/%q", c.in, code, name, c.wantCode, c.wantName)
		}
	}
}

func TestExtractMoneyToken(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in   string
		want float64
	}{
		{"XL / 1800 DA", 1800},
		{"Rouge - 2 500,00", 2500},
		{"Taille M", 0},
	}

	for _, c := range cases {
		if got := ExtractMoneyToken(c.in); got != c.want {
			t.Errorf("ExtractMoneyToken(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
