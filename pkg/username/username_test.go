package username

import (
	"slices"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"plain", "alice", "alice"},
		{"leading at", "@alice", "alice"},
		{"only one at stripped", "@@alice", "alice"},
		{"whitespace", "  bob_smith \t", "bob_smith"},
		{"drops punctuation", "j!o#h$n.d-o_e", "john.d-o_e"},
		{"unicode dropped", "zoë", "zo"},
		{"too short", "a", ""},
		{"too short after cleanup", "@a!", ""},
		{"empty", "", ""},
		{"keeps case", "JohnDoe", "JohnDoe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Normalize(tt.raw); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{"@alice", "  j.doe  ", "x!y", "@@", "a_b-c.d", "日本語ab", "@-_."}
	for _, in := range inputs {
		once := Normalize(in)
		if twice := Normalize(once); twice != once {
			t.Errorf("Normalize(Normalize(%q)) = %q, want %q", in, twice, once)
		}
	}
}

func TestVariants(t *testing.T) {
	tests := []struct {
		name         string
		base         string
		allowNumeric bool
		want         []string
	}{
		{
			name: "no separators",
			base: "alice",
			want: []string{"alice"},
		},
		{
			name: "dot separated",
			base: "john.doe",
			want: []string{"john.doe", "johndoe", "john_doe", "john-doe", "john"},
		},
		{
			name: "underscore separated",
			base: "john_doe",
			want: []string{"john_doe", "johndoe", "john.doe", "john-doe", "john"},
		},
		{
			name: "dash separated",
			base: "jo-do",
			want: []string{"jo-do", "jodo", "jo_do", "jo.do"},
		},
		{
			name: "trailing digits stripped",
			base: "bob42",
			want: []string{"bob42", "bob"},
		},
		{
			name:         "numeric suffixes when allowed",
			base:         "ab",
			allowNumeric: true,
			want:         []string{"ab", "ab1", "ab01"},
		},
		{
			name: "invalid base",
			base: "@",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variants(tt.base, tt.allowNumeric)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Variants(%q, %v) mismatch (-want +got):\n%s", tt.base, tt.allowNumeric, diff)
			}
		})
	}
}

func TestVariantsProperties(t *testing.T) {
	inputs := []string{
		"alice", "@j.doe", "a_b-c.d_e-f.g", "user_2024", "x.y", "first.middle-last_99",
		"ab", "very.long_name-with.many_separators-2",
	}
	for _, in := range inputs {
		for _, allow := range []bool{false, true} {
			got := Variants(in, allow)
			if len(got) > MaxVariants {
				t.Errorf("Variants(%q, %v) returned %d entries, want <= %d", in, allow, len(got), MaxVariants)
			}
			if !slices.Contains(got, Normalize(in)) {
				t.Errorf("Variants(%q, %v) = %v, missing normalized base %q", in, allow, got, Normalize(in))
			}
			if !allow {
				u := Normalize(in)
				for _, v := range got {
					if v == u+"1" || v == u+"01" {
						t.Errorf("Variants(%q, false) contains numeric suffix %q", in, v)
					}
				}
			}
		}
	}
}

func TestVariantsNumericGate(t *testing.T) {
	with := Variants("ab", true)
	without := Variants("ab", false)

	for _, want := range []string{"ab1", "ab01"} {
		if !slices.Contains(with, want) {
			t.Errorf("Variants(ab, true) = %v, missing %q", with, want)
		}
		if slices.Contains(without, want) {
			t.Errorf("Variants(ab, false) = %v, should not contain %q", without, want)
		}
	}
}

func TestFromEmail(t *testing.T) {
	got := FromEmail("john.doe@example.com")
	for _, want := range []string{"johndoe", "john_doe", "john.doe", "john-doe", "jdoe"} {
		if !slices.Contains(got, want) {
			t.Errorf("FromEmail(john.doe@example.com) = %v, missing %q", got, want)
		}
	}
	if len(got) > MaxEmailCandidates {
		t.Errorf("FromEmail returned %d candidates, want <= %d", len(got), MaxEmailCandidates)
	}
	if got[0] != "john.doe" {
		t.Errorf("FromEmail first candidate = %q, want the normalized local part", got[0])
	}
}

func TestFromEmailEdgeCases(t *testing.T) {
	tests := []struct {
		name  string
		email string
		want  []string
	}{
		{"dotted", "john.doe@example.com", []string{"john.doe", "johndoe", "john_doe", "john-doe", "john", "jdoe"}},
		{"three parts", "a.b.c@example.com", []string{"a.b.c", "abc", "a_b_c", "a-b-c", "ac"}},
		{"single part", "jdoe@example.com", []string{"jdoe"}},
		{"empty local", "@example.com", nil},
		{"one char local", "j@example.com", nil},
		{"no numeric suffix", "bob7@example.com", []string{"bob7", "bob"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FromEmail(tt.email)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("FromEmail(%q) mismatch (-want +got):\n%s", tt.email, diff)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	got := Merge(3, []string{"a1", "b2"}, []string{"b2", "c3", "d4"})
	want := []string{"a1", "b2", "c3"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Merge mismatch (-want +got):\n%s", diff)
	}
}

func TestHasDigit(t *testing.T) {
	if !HasDigit("abc1") {
		t.Error("HasDigit(abc1) = false, want true")
	}
	if HasDigit("abc") {
		t.Error("HasDigit(abc) = true, want false")
	}
}
