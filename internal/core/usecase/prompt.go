package usecase

import (
	"fmt"
	"strings"

	"github.com/nqhuy/admissions-assistant/internal/core/domain"
)

func buildAnswerPrompt(question string, chunks []domain.Chunk, webResults []domain.WebResult) string {
	var b strings.Builder

	b.WriteString("Bạn là trợ lý tuyển sinh. Trả lời câu hỏi chỉ dựa trên thông tin dưới đây.\n")
	b.WriteString("Nếu thông tin không đủ, hãy nói thẳng là không đủ thông tin.\n\n")

	if len(chunks) > 0 {
		b.WriteString("THÔNG TIN NỘI BỘ:\n")
		for idx, chunk := range chunks {
			text := chunk.Content
			if chunk.FullContent != "" {
				text = chunk.FullContent
			}
			fmt.Fprintf(&b, "[%d] nguồn=%s điểm=%.3f\n%s\n\n", idx+1, chunk.URL, chunk.RelevanceScore, text)
		}
	}

	if len(webResults) > 0 {
		b.WriteString("KẾT QUẢ TÌM KIẾM WEB:\n")
		for idx, result := range webResults {
			fmt.Fprintf(&b, "[w%d] %s (%s)\n%s\n\n", idx+1, result.Title, result.URL, result.Snippet)
		}
	}

	fmt.Fprintf(&b, "CÂU HỎI: %s\n\nTRẢ LỜI:", question)
	return b.String()
}

func buildDecomposePrompt(question string, maxSubQueries int) string {
	return fmt.Sprintf(`Tách câu hỏi sau thành tối đa %d câu hỏi con độc lập, mỗi câu một dòng, không đánh số.
Nếu câu hỏi đã đơn giản, trả về đúng một dòng là chính câu hỏi đó.

Câu hỏi: %s`, maxSubQueries, question)
}

// parseSubQueries extracts sub-queries from the decomposer's line-based
// output, tolerating numbering and bullet prefixes.
func parseSubQueries(raw string, max int) []string {
	lines := strings.Split(raw, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		line = strings.TrimSpace(line)
		line = strings.TrimLeft(line, "-*0123456789.) ")
		if line == "" {
			continue
		}
		out = append(out, line)
		if max > 0 && len(out) >= max {
			break
		}
	}
	return out
}
