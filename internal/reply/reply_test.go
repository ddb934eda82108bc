package reply

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantKind   Kind
		wantCode   string
		wantClosed bool
	}{
		{
			name:       "single expression block",
			text:       "```python\ndf.shape[0]\n```",
			wantKind:   Code,
			wantCode:   "\ndf.shape[0]\n",
			wantClosed: true,
		},
		{
			name:     "prose",
			text:     "The mean sepal length is 5.8",
			wantKind: Prose,
		},
		{
			name:     "empty reply",
			text:     "",
			wantKind: Prose,
		},
		{
			name:     "whitespace reply",
			text:     "  \n\t",
			wantKind: Prose,
		},
		{
			name:       "leading whitespace before fence",
			text:       "\n\n  ```python\nx = 1\nx\n```\n",
			wantKind:   Code,
			wantCode:   "\nx = 1\nx\n",
			wantClosed: true,
		},
		{
			name:       "missing closing fence keeps remainder",
			text:       "```python\nlen(df)\n",
			wantKind:   Code,
			wantCode:   "\nlen(df)\n",
			wantClosed: false,
		},
		{
			name:     "fence not at start is prose",
			text:     "Here you go:\n```python\nlen(df)\n```",
			wantKind: Prose,
		},
		{
			name:     "other language fence is prose",
			text:     "```sql\nSELECT 1\n```",
			wantKind: Prose,
		},
		{
			name:       "text after closing fence dropped",
			text:       "```python\nlen(df)\n```\nThis counts rows.",
			wantKind:   Code,
			wantCode:   "\nlen(df)\n",
			wantClosed: true,
		},
		{
			name:       "second block ignored",
			text:       "```python\na\n```\n```python\nb\n```",
			wantKind:   Code,
			wantCode:   "\na\n",
			wantClosed: true,
		},
		{
			name:       "empty body",
			text:       "```python```",
			wantKind:   Code,
			wantCode:   "",
			wantClosed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.text)
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Closed != tt.wantClosed {
				t.Errorf("Closed = %v, want %v", got.Closed, tt.wantClosed)
			}
		})
	}
}

func TestClassifierJavaScript(t *testing.T) {
	c := NewClassifier("javascript")

	if c.OpenFence() != "```javascript" {
		t.Errorf("OpenFence() = %q", c.OpenFence())
	}

	got := c.Classify("```javascript\nlen(df)\n```")
	if got.Kind != Code || got.Code != "\nlen(df)\n" {
		t.Errorf("Classify() = %+v", got)
	}

	if got := c.Classify("```python\nlen(df)\n```"); got.Kind != Prose {
		t.Errorf("python block classified as %v by javascript classifier", got.Kind)
	}
}

func TestKindString(t *testing.T) {
	if Code.String() != "code" || Prose.String() != "prose" {
		t.Errorf("String() = %q, %q", Code.String(), Prose.String())
	}
}
