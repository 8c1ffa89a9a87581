package crm

import (
	"fmt"
	"strconv"
	"strings"
)

// FormatRecord renders one record as the deterministic Japanese text block
// that gets embedded and shown back as a retrieved source. The output must
// stay byte-stable across releases: stored embeddings were computed from it.
func FormatRecord(r Record) (string, error) {
	switch v := r.(type) {
	case Customer:
		return formatCustomer(v), nil
	case Quote:
		return formatQuote(v), nil
	case WorkHistory:
		return formatWorkHistory(v), nil
	}
	return "", fmt.Errorf("%w: %T", ErrUnsupportedKind, r)
}

func formatCustomer(c Customer) string {
	var sb strings.Builder
	sb.WriteString("【顧客情報】\n")
	fmt.Fprintf(&sb, "顧客ID: %s\n", c.CustomerID)
	fmt.Fprintf(&sb, "氏名: %s\n", c.Name)
	fmt.Fprintf(&sb, "電話番号: %s\n", c.Phone)
	if c.Email != "" {
		fmt.Fprintf(&sb, "メールアドレス: %s\n", c.Email)
	}
	if c.Address != "" {
		fmt.Fprintf(&sb, "住所: %s\n", c.Address)
	}
	fmt.Fprintf(&sb, "累計売上: %s\n", FormatYen(c.TotalSales))
	fmt.Fprintf(&sb, "来店回数: %d回\n", c.VisitCount)
	fmt.Fprintf(&sb, "登録日: %s\n", c.RegisteredAt)
	if c.Notes != "" {
		fmt.Fprintf(&sb, "備考: %s\n", c.Notes)
	}
	return sb.String()
}

func formatQuote(q Quote) string {
	var sb strings.Builder
	sb.WriteString("【見積情報】\n")
	fmt.Fprintf(&sb, "見積ID: %s\n", q.QuoteID)
	fmt.Fprintf(&sb, "顧客ID: %s\n", q.CustomerID)
	fmt.Fprintf(&sb, "車両: %s\n", q.VehicleInfo)
	if len(q.Items) > 0 {
		sb.WriteString("明細:\n")
		for _, item := range q.Items {
			fmt.Fprintf(&sb, "- %s: %s (単価%s × %d)\n",
				item.Description, FormatYen(item.TotalPrice), FormatYen(item.UnitPrice), item.Quantity)
		}
	}
	fmt.Fprintf(&sb, "合計金額: %s\n", FormatYen(q.TotalAmount))
	fmt.Fprintf(&sb, "ステータス: %s\n", q.Status)
	fmt.Fprintf(&sb, "見積日: %s\n", q.QuoteDate)
	if q.Notes != "" {
		fmt.Fprintf(&sb, "備考: %s\n", q.Notes)
	}
	return sb.String()
}

func formatWorkHistory(w WorkHistory) string {
	var sb strings.Builder
	sb.WriteString("【作業履歴】\n")
	fmt.Fprintf(&sb, "作業ID: %s\n", w.WorkID)
	fmt.Fprintf(&sb, "顧客ID: %s\n", w.CustomerID)
	fmt.Fprintf(&sb, "車両: %s\n", w.VehicleInfo)
	fmt.Fprintf(&sb, "作業種別: %s\n", w.WorkType)
	fmt.Fprintf(&sb, "作業内容: %s\n", w.Description)
	fmt.Fprintf(&sb, "担当技術者: %s\n", w.Technician)
	fmt.Fprintf(&sb, "作業日: %s\n", w.WorkDate)
	if len(w.PartsUsed) > 0 {
		sb.WriteString("使用部品:\n")
		for _, p := range w.PartsUsed {
			fmt.Fprintf(&sb, "- %s × %d: %s\n", p.PartName, p.Quantity, FormatYen(p.TotalPrice))
		}
	}
	fmt.Fprintf(&sb, "工賃: %s\n", FormatYen(w.LaborCost))
	fmt.Fprintf(&sb, "部品代: %s\n", FormatYen(w.PartsCost))
	fmt.Fprintf(&sb, "合計費用: %s\n", FormatYen(w.TotalCost))
	fmt.Fprintf(&sb, "評価: %dつ星\n", w.Rating)
	if w.Notes != "" {
		fmt.Fprintf(&sb, "備考: %s\n", w.Notes)
	}
	return sb.String()
}

// FormatYen renders an integer yen amount with grouped thousands, e.g.
// 450000 -> "450,000円". One fixed format, no locale negotiation.
func FormatYen(amount int64) string {
	neg := amount < 0
	if neg {
		amount = -amount
	}
	digits := strconv.FormatInt(amount, 10)

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	lead := len(digits) % 3
	if lead > 0 {
		sb.WriteString(digits[:lead])
		if len(digits) > lead {
			sb.WriteByte(',')
		}
	}
	for i := lead; i < len(digits); i += 3 {
		sb.WriteString(digits[i : i+3])
		if i+3 < len(digits) {
			sb.WriteByte(',')
		}
	}
	sb.WriteString("円")
	return sb.String()
}
