package render

import (
	"context"
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/opentracing/opentracing-go"
	"github.com/pkg/errors"

	"github.com/anidavtyan/email-reporting-system/dto"
	"github.com/anidavtyan/email-reporting-system/interfaces"
	"github.com/anidavtyan/email-reporting-system/internal/tracing"
	"github.com/anidavtyan/email-reporting-system/internal/utils"
)

type pdfRenderer struct{}

// NewPDFRenderer builds the daily usage report artifact as a PDF document.
func NewPDFRenderer() interfaces.ReportRenderer {
	return &pdfRenderer{}
}

func (r *pdfRenderer) Render(ctx context.Context, recipient dto.Recipient, rows []dto.DomainUsage, reportDate time.Time) ([]byte, error) {
	span, _ := opentracing.StartSpanFromContext(ctx, "PDFRenderer.Render")
	defer span.Finish()
	tracing.SetDefaultServiceSpanTags(ctx, span)
	tracing.TagRecipient(span, recipient.ID)
	tracing.TagReportDate(span, utils.FormatDate(reportDate))

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(12,
		text.NewCol(12, "Daily Email Usage Report", props.Text{
			Size:  18,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(18,
		col.New(12).Add(
			text.New("Recipient: "+recipient.Email, props.Text{Top: 0, Size: 9}),
			text.New("Report date: "+utils.FormatDate(reportDate), props.Text{Top: 4, Size: 9}),
			text.New("Generated at: "+utils.Now().Format("2006-01-02 15:04:05")+" UTC", props.Text{Top: 8, Size: 9}),
		),
	)

	m.AddRow(10,
		text.NewCol(5, "Domain", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Email volume", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "SPF pass", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "DMARC pass", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	for _, row := range rows {
		m.AddRow(8,
			text.NewCol(5, row.DomainName, props.Text{Size: 9}),
			text.NewCol(3, fmt.Sprintf("%d", row.EmailVolume), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, fmt.Sprintf("%.1f%%", row.SPFPassRatio), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, fmt.Sprintf("%.1f%%", row.DMARCPassRatio), props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		tracing.TraceErr(span, err)
		return nil, errors.Wrap(err, "pdf generation failed")
	}

	return doc.GetBytes(), nil
}
