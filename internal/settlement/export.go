package settlement

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const exportDateLayout = "2006-01-02"

// ExportCSV renders a settlement as a statement file: a header block,
// the summary totals, the per-order detail table and any adjustments.
// The returned filename embeds the settlement number.
func (s *service) ExportCSV(ctx context.Context, settlementID uuid.UUID) ([]byte, string, error) {
	settlement, err := s.repo.FindByID(ctx, settlementID)
	if err != nil {
		return nil, "", notFoundOr(err, "settlement not found")
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := [][]string{
		{"Settlement Number", settlement.SettlementNumber},
		{"Seller", settlement.SellerStoreID.String()},
		{"Period", fmt.Sprintf("%s to %s",
			settlement.PeriodStart.Format(exportDateLayout),
			settlement.PeriodEnd.Format(exportDateLayout))},
		{"Generated", settlement.GeneratedAt.UTC().Format(time.RFC3339)},
		{"Version", fmt.Sprintf("%d", settlement.Version)},
		{"Status", settlement.Status.String()},
		{},
		{"Gross Sales", money(settlement.GrossSales)},
		{"Refunds", money(settlement.Refunds)},
		{"Commission", money(settlement.Commission)},
		{"Adjustments", money(settlement.Adjustments)},
		{"Net Amount", money(settlement.NetAmount)},
		{"Total Payouts", money(settlement.TotalPayouts)},
		{},
	}
	for _, row := range header {
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}

	if err := w.Write([]string{"Order Number", "Order Date", "Gross Amount", "Refund Amount", "Commission Amount", "Net Amount"}); err != nil {
		return nil, "", err
	}
	for _, item := range settlement.Items {
		row := []string{
			item.OrderNumber,
			item.OrderDate.Format(exportDateLayout),
			money(item.GrossAmount),
			money(item.RefundAmount),
			money(item.CommissionAmount),
			money(item.NetAmount),
		}
		if err := w.Write(row); err != nil {
			return nil, "", err
		}
	}

	if len(settlement.AdjustmentRows) > 0 {
		if err := w.Write(nil); err != nil {
			return nil, "", err
		}
		if err := w.Write([]string{"Type", "Amount", "Description", "Prior Period"}); err != nil {
			return nil, "", err
		}
		for _, adj := range settlement.AdjustmentRows {
			prior := "no"
			if adj.IsPriorPeriodAdjustment {
				prior = "yes"
			}
			row := []string{adj.Type.String(), money(adj.Amount), adj.Description, prior}
			if err := w.Write(row); err != nil {
				return nil, "", err
			}
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("%s.csv", settlement.SettlementNumber)
	return buf.Bytes(), filename, nil
}

func money(value decimal.Decimal) string {
	return value.StringFixed(2)
}
