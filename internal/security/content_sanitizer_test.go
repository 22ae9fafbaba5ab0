package security

import (
	"strings"
	"testing"
)

// scriptタグが除去されることを検証
func TestSanitize_RemovesScript(t *testing.T) {
	s := NewContentSanitizer()
	out := s.Sanitize(`<p>安全な段落</p><script>alert("xss")</script>`)
	if strings.Contains(out, "<script") {
		t.Errorf("script tag should be removed: %q", out)
	}
	if !strings.Contains(out, "<p>安全な段落</p>") {
		t.Errorf("safe paragraph should survive: %q", out)
	}
}

// on*イベント属性が除去されることを検証
func TestSanitize_RemovesEventHandlers(t *testing.T) {
	s := NewContentSanitizer()
	out := s.Sanitize(`<p onclick="alert(1)">テキスト</p>`)
	if strings.Contains(out, "onclick") {
		t.Errorf("event handler should be removed: %q", out)
	}
}

// 見出しとリストが通過することを検証
func TestSanitize_AllowsArticleStructure(t *testing.T) {
	s := NewContentSanitizer()
	input := `<h2>保険選びのポイント</h2><ul><li>保障内容</li><li>保険料</li></ul>`
	out := s.Sanitize(input)
	if out != input {
		t.Errorf("article structure should pass unchanged:\n got %q\nwant %q", out, input)
	}
}

// 非httpsのimg srcが拒否されることを検証
func TestSanitize_RejectsNonHTTPSImage(t *testing.T) {
	s := NewContentSanitizer()
	out := s.Sanitize(`<img src="javascript:alert(1)"><img src="https://example.com/ok.png">`)
	if strings.Contains(out, "javascript:") {
		t.Errorf("javascript scheme should be rejected: %q", out)
	}
	if !strings.Contains(out, `src="https://example.com/ok.png"`) {
		t.Errorf("https image should survive: %q", out)
	}
}

// 空文字列の入力に空文字列を返すことを検証
func TestSanitize_EmptyInput(t *testing.T) {
	s := NewContentSanitizer()
	if out := s.Sanitize(""); out != "" {
		t.Errorf("empty input should produce empty output: %q", out)
	}
}

// 同一入力に対して冪等であることを検証
func TestSanitize_Idempotent(t *testing.T) {
	s := NewContentSanitizer()
	input := `<h3>タイトル</h3><p>本文<strong>強調</strong></p><iframe src="https://evil"></iframe>`
	once := s.Sanitize(input)
	twice := s.Sanitize(once)
	if once != twice {
		t.Errorf("sanitize should be idempotent:\n once %q\ntwice %q", once, twice)
	}
}
