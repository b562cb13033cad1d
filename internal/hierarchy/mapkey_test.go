package hierarchy

import "testing"

func TestParseChunkMapRoundTrip(t *testing.T) {
	cases := []struct {
		in      string
		subject string
		topic   string
		lesson  string
		chunk   string
	}{
		{"TH10_CD1_B1_C1", "TH10", "1", "1", "1"},
		{"TH11-KHMT_CD3_B12_C4", "TH11-KHMT", "3", "12", "4"},
		{"TH12_CD10_B2_C30", "TH12", "10", "2", "30"},
	}
	for _, tc := range cases {
		p := ParseChunkMap(tc.in)
		if p == nil {
			t.Fatalf("ParseChunkMap(%q) = nil", tc.in)
		}
		if p.SubjectMap != tc.subject || p.TopicNumber != tc.topic || p.LessonNumber != tc.lesson || p.ChunkNumber != tc.chunk {
			t.Fatalf("ParseChunkMap(%q) = %+v", tc.in, p)
		}
		recomposed := ComposeChunkMap(ComposeLessonMap(ComposeTopicMap(p.SubjectMap, p.TopicNumber), p.LessonNumber), p.ChunkNumber)
		if recomposed != tc.in {
			t.Fatalf("round trip %q -> %q", tc.in, recomposed)
		}
		if p.LessonMap != ComposeLessonMap(p.TopicMap, p.LessonNumber) {
			t.Fatalf("lesson map mismatch: %q", p.LessonMap)
		}
	}
}

func TestParseRejectsPartialMatches(t *testing.T) {
	bad := []string{"", "TH10", "TH10_CD1_B1_C1_X", "xTH10_CD1_B1_C1 extra", "TH10_CD_B1_C1", "TH10_B1_C1"}
	for _, s := range bad {
		if ParseChunkMap(s) != nil {
			t.Errorf("ParseChunkMap(%q) should be nil", s)
		}
	}
	// A lesson map must not parse as a topic map.
	if ParseTopicMap("TH10_CD1_B1") != nil {
		t.Error("ParseTopicMap accepted a lesson map")
	}
}

func TestParseTopicMapAnchored(t *testing.T) {
	p := ParseTopicMap("TH10_CD2")
	if p == nil || p.SubjectMap != "TH10" || p.TopicNumber != "2" || p.ClassMap != "L10" {
		t.Fatalf("ParseTopicMap = %+v", p)
	}
	if ParseTopicMap("TH10_CDx") != nil {
		t.Fatal("non-numeric topic number accepted")
	}
}

func TestDeriveClassMap(t *testing.T) {
	if got := DeriveClassMap("TH10"); got != "L10" {
		t.Fatalf("DeriveClassMap(TH10) = %q", got)
	}
	if got := DeriveClassMap("TH11-KHMT"); got != "L11" {
		t.Fatalf("DeriveClassMap(TH11-KHMT) = %q", got)
	}
	if got := DeriveClassMap("ABC"); got != "" {
		t.Fatalf("DeriveClassMap(ABC) = %q, want empty", got)
	}
}

func TestClassGrade(t *testing.T) {
	for in, want := range map[string]string{"L10": "10", "l12": "12", "class-10": "10", "": ""} {
		if got := ClassGrade(in); got != want {
			t.Errorf("ClassGrade(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExpandFromChunkMapOnly(t *testing.T) {
	m := Expand(Maps{ChunkMap: "TH10_CD1_B1_C1"})
	want := Maps{
		ClassMap:   "L10",
		SubjectMap: "TH10",
		TopicMap:   "TH10_CD1",
		LessonMap:  "TH10_CD1_B1",
		ChunkMap:   "TH10_CD1_B1_C1",
	}
	if m != want {
		t.Fatalf("Expand = %+v, want %+v", m, want)
	}
}

func TestExpandKeepsExplicitKeys(t *testing.T) {
	m := Expand(Maps{ClassMap: "L99", ChunkMap: "TH10_CD1_B1_C1"})
	if m.ClassMap != "L99" {
		t.Fatalf("explicit class map overwritten: %q", m.ClassMap)
	}
}

func TestKeywordMapKey(t *testing.T) {
	if got := KeywordMapKey("TH10_CD1_B1_C1", 2); got != "TH10_CD1_B1_C1_K2" {
		t.Fatalf("KeywordMapKey = %q", got)
	}
}
