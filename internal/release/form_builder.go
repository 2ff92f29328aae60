package release

import (
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/unifound/lostfound/internal/domain/entity"
)

// FormData carries everything printed on a custody release form
type FormData struct {
	FormID         string
	GeneratedAt    time.Time
	Request        *entity.WorkRequest
	Claim          *entity.ItemClaimPayload
	Item           *entity.Item
	HoldingOrgName string
	Approvals      []*entity.ApprovalRecord
}

// FormBuilder renders custody release workbooks for approved claims
type FormBuilder struct {
	logger *zap.Logger
}

// NewFormBuilder creates a new form builder
func NewFormBuilder(logger *zap.Logger) *FormBuilder {
	return &FormBuilder{logger: logger}
}

// Render builds the release workbook and returns its bytes
func (fb *FormBuilder) Render(data *FormData) ([]byte, error) {
	if data == nil || data.Request == nil || data.Claim == nil {
		return nil, fmt.Errorf("release form data is incomplete")
	}

	fb.logger.Info("Rendering release form",
		zap.String("form_id", data.FormID),
		zap.String("request_id", data.Request.ID))

	f := excelize.NewFile()
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	fb.setCell(f, sheet, "A1", "ITEM CUSTODY RELEASE FORM")
	if err := f.MergeCell(sheet, "A1", "E1"); err != nil {
		fb.logger.Warn("Failed to merge title cells", zap.Error(err))
	}

	fb.setCell(f, sheet, "A3", "Form ID")
	fb.setCell(f, sheet, "B3", data.FormID)
	fb.setCell(f, sheet, "A4", "Generated")
	fb.setCell(f, sheet, "B4", data.GeneratedAt.Format("2006-01-02 15:04"))
	fb.setCell(f, sheet, "A5", "Releasing Organization")
	fb.setCell(f, sheet, "B5", data.HoldingOrgName)

	fb.setCell(f, sheet, "A7", "Item")
	fb.setCell(f, sheet, "A8", "Item ID")
	fb.setCell(f, sheet, "B8", data.Claim.ItemID)
	if data.Item != nil {
		fb.setCell(f, sheet, "A9", "Title")
		fb.setCell(f, sheet, "B9", data.Item.Title)
		fb.setCell(f, sheet, "A10", "Category")
		fb.setCell(f, sheet, "B10", data.Item.Category)
		fb.setCell(f, sheet, "A11", "Tags")
		fb.setCell(f, sheet, "B11", strings.Join(data.Item.Tags, ", "))
	} else {
		fb.setCell(f, sheet, "A9", "Title")
		fb.setCell(f, sheet, "B9", data.Claim.ItemTitle)
	}

	fb.setCell(f, sheet, "A13", "Claimant")
	fb.setCell(f, sheet, "A14", "Name")
	fb.setCell(f, sheet, "B14", data.Request.RequesterName)
	fb.setCell(f, sheet, "A15", "Email")
	fb.setCell(f, sheet, "B15", data.Request.RequesterID)
	fb.setCell(f, sheet, "A16", "Phone")
	fb.setCell(f, sheet, "B16", data.Claim.ContactPhone)
	fb.setCell(f, sheet, "A17", "Proof Provided")
	fb.setCell(f, sheet, "B17", data.Claim.ProofDescription)

	fb.setCell(f, sheet, "A19", "Request")
	fb.setCell(f, sheet, "A20", "Request ID")
	fb.setCell(f, sheet, "B20", data.Request.ID)
	fb.setCell(f, sheet, "A21", "Estimated Value")
	fb.setCell(f, sheet, "B21", fmt.Sprintf("%.2f", data.Request.EstimatedValue))
	fb.setCell(f, sheet, "A22", "Final Approver")
	fb.setCell(f, sheet, "B22", data.Request.DecidedBy)
	if data.Request.DecidedAt != nil {
		fb.setCell(f, sheet, "A23", "Decided At")
		fb.setCell(f, sheet, "B23", data.Request.DecidedAt.Format("2006-01-02 15:04"))
	}

	fb.setCell(f, sheet, "A25", "Approval Trail")
	fb.setCell(f, sheet, "A26", "Step")
	fb.setCell(f, sheet, "B26", "Action")
	fb.setCell(f, sheet, "C26", "Actor")
	fb.setCell(f, sheet, "D26", "Role")
	fb.setCell(f, sheet, "E26", "Date")
	for i, rec := range data.Approvals {
		row := 27 + i
		fb.setCell(f, sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("%d", rec.StepIndex+1))
		fb.setCell(f, sheet, fmt.Sprintf("B%d", row), rec.Action)
		fb.setCell(f, sheet, fmt.Sprintf("C%d", row), rec.ActorEmail)
		fb.setCell(f, sheet, fmt.Sprintf("D%d", row), rec.ActorRole)
		fb.setCell(f, sheet, fmt.Sprintf("E%d", row), rec.CreatedAt.Format("2006-01-02 15:04"))
	}

	signatureRow := 29 + len(data.Approvals)
	fb.setCell(f, sheet, fmt.Sprintf("A%d", signatureRow), "Claimant Signature")
	fb.setCell(f, sheet, fmt.Sprintf("C%d", signatureRow), "Released By")

	if err := f.SetColWidth(sheet, "A", "A", 22); err != nil {
		fb.logger.Warn("Failed to set column width", zap.Error(err))
	}
	if err := f.SetColWidth(sheet, "B", "E", 28); err != nil {
		fb.logger.Warn("Failed to set column width", zap.Error(err))
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	fb.logger.Info("Release form rendered",
		zap.String("form_id", data.FormID),
		zap.Int("size_bytes", buf.Len()))

	return buf.Bytes(), nil
}

// setCell sets a cell value in the workbook
func (fb *FormBuilder) setCell(f *excelize.File, sheet, cell, value string) {
	if err := f.SetCellValue(sheet, cell, value); err != nil {
		fb.logger.Warn("Failed to set cell value",
			zap.String("sheet", sheet),
			zap.String("cell", cell),
			zap.Error(err))
	}
}
