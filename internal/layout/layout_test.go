package layout

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"ocrdoc/pkg/models"
)

func results(texts ...string) []models.OCRResult {
	out := make([]models.OCRResult, len(texts))
	for i, t := range texts {
		out[i] = models.OCRResult{Text: t, SequenceIndex: i + 1, SourceName: fmt.Sprintf("img%d.png", i+1)}
	}
	return out
}

func kinds(blocks []Block) string {
	parts := make([]string, len(blocks))
	for i, b := range blocks {
		parts[i] = b.Kind.String()
	}
	return strings.Join(parts, ",")
}

func TestPlanBlockOrder(t *testing.T) {
	tests := []struct {
		name string
		opts func(*Options)
		want string
	}{
		{
			name: "continuous never has headers",
			opts: func(o *Options) { o.Layout = Continuous; o.ShowHeaders = true },
			want: "body,spacer,separator,body,spacer",
		},
		{
			name: "numbered with headers",
			opts: func(o *Options) { o.Layout = Numbered },
			want: "header,body,spacer,separator,header,body,spacer",
		},
		{
			name: "separated without headers",
			opts: func(o *Options) { o.Layout = Separated; o.ShowHeaders = false },
			want: "body,spacer,separator,body,spacer",
		},
		{
			name: "separator none still emits a separator block",
			opts: func(o *Options) { o.Layout = Separated; o.SeparatorStyle = SeparatorNone },
			want: "header,body,spacer,separator,header,body,spacer",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := Defaults()
			tt.opts(&opts)
			if got := kinds(Plan(results("a", "b"), opts)); got != tt.want {
				t.Errorf("Plan() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestPlanHeaderShape(t *testing.T) {
	opts := Defaults()
	opts.Layout = Numbered
	blocks := Plan(results("x"), opts)
	if blocks[0].Header != HeaderNumbered || blocks[0].Index != 1 || blocks[0].Name != "img1.png" {
		t.Errorf("numbered header = %+v", blocks[0])
	}

	opts.Layout = Separated
	blocks = Plan(results("x"), opts)
	if blocks[0].Header != HeaderStandalone {
		t.Errorf("separated header = %+v", blocks[0])
	}
}

func TestPlanEmptyTextHasBody(t *testing.T) {
	blocks := Plan(results(""), Defaults())
	if blocks[0].Kind != KindBody {
		t.Fatalf("first block = %v, want body", blocks[0].Kind)
	}
	if len(blocks[0].Lines) != 1 || blocks[0].Lines[0] != "" {
		t.Errorf("Lines = %q, want one empty line", blocks[0].Lines)
	}
}

func TestPlanDoesNotModifyResults(t *testing.T) {
	in := results("one\ntwo", "three")
	snapshot := models.CloneResults(in)
	Plan(in, Defaults())
	if !reflect.DeepEqual(in, snapshot) {
		t.Error("Plan modified its input")
	}
}

func TestSplitLines(t *testing.T) {
	got := SplitLines("a\r\nb\n\nc")
	want := []string{"a", "b", "", "c"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("SplitLines() = %q, want %q", got, want)
	}
}

type recorder struct {
	calls  []string
	failAt int
}

func (r *recorder) add(s string) error {
	r.calls = append(r.calls, s)
	if r.failAt > 0 && len(r.calls) == r.failAt {
		return errors.New("encoder failed")
	}
	return nil
}

func (r *recorder) Separator(style SeparatorStyle) error { return r.add("sep:" + string(style)) }
func (r *recorder) Header(style HeaderStyle, index int, name string) error {
	return r.add(fmt.Sprintf("hdr:%d:%s", index, name))
}
func (r *recorder) Body(text string, lines []string) error { return r.add("body:" + text) }
func (r *recorder) Spacer() error { return r.add("spacer") }

func TestDrive(t *testing.T) {
	opts := Defaults()
	opts.Layout = Numbered
	rec := &recorder{}
	if err := Drive(Plan(results("Hello", "World"), opts), rec); err != nil {
		t.Fatalf("Drive() error = %v", err)
	}
	want := []string{"hdr:1:img1.png", "body:Hello", "spacer", "sep:line", "hdr:2:img2.png", "body:World", "spacer"}
	if !reflect.DeepEqual(rec.calls, want) {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}

	rec = &recorder{failAt: 2}
	if err := Drive(Plan(results("Hello", "World"), opts), rec); err == nil {
		t.Error("expected encoder error")
	}
	if len(rec.calls) != 2 {
		t.Errorf("Drive continued after error: %v", rec.calls)
	}
}

func TestValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"layout", func(o *Options) { o.Layout = "grid" }},
		{"separator", func(o *Options) { o.SeparatorStyle = "dots" }},
		{"spacing", func(o *Options) { o.LineSpacing = "1.5" }},
		{"font too small", func(o *Options) { o.FontSize = 7 }},
		{"font too large", func(o *Options) { o.FontSize = 19 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Defaults()
			tt.mutate(&o)
			if err := o.Validate(); !errors.Is(err, ErrInvalidOptions) {
				t.Errorf("Validate() = %v, want ErrInvalidOptions", err)
			}
		})
	}

	for _, size := range []int{MinFontSize, MaxFontSize} {
		o := Defaults()
		o.FontSize = size
		if err := o.Validate(); err != nil {
			t.Errorf("font size %d rejected: %v", size, err)
		}
	}
}

func TestMultiplierIncreasing(t *testing.T) {
	s, n, d := SpacingSingle.Multiplier(), SpacingNormal.Multiplier(), SpacingDouble.Multiplier()
	if !(s < n && n < d) {
		t.Errorf("multipliers not increasing: %v %v %v", s, n, d)
	}
	if s != 1 || n != 1.4 || d != 2 {
		t.Errorf("multipliers = %v %v %v, want 1 1.4 2", s, n, d)
	}
}

func TestParse(t *testing.T) {
	if l, err := ParseLayout(" Numbered "); err != nil || l != Numbered {
		t.Errorf("ParseLayout() = %v, %v", l, err)
	}
	if _, err := ParseSeparator("dash"); !errors.Is(err, ErrInvalidOptions) {
		t.Errorf("ParseSeparator() error = %v", err)
	}
	if s, err := ParseLineSpacing("DOUBLE"); err != nil || s != SpacingDouble {
		t.Errorf("ParseLineSpacing() = %v, %v", s, err)
	}
}
