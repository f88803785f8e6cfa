package services

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/google/uuid"
	config "github.com/kelvinjuma/invest_portal/configs"
	"github.com/kelvinjuma/invest_portal/database"
	"github.com/kelvinjuma/invest_portal/models"
)

// GeneratePaymentReceipt renders a PDF receipt for an approved payment
// and stores the upload URL on the payment. Best effort: failures are
// logged, never propagated, since the approval already committed.
func GeneratePaymentReceipt(paymentID uuid.UUID) {
	var payment models.PaymentRequest
	if err := database.DB.Preload("User").First(&payment, "id = ?", paymentID).Error; err != nil {
		log.Printf("🔥 Receipt: payment %s not found: %v", paymentID, err)
		return
	}
	if payment.State != models.PaymentStateApproved {
		return
	}

	htmlData, err := renderReceiptHTML(&payment)
	if err != nil {
		log.Printf("🔥 Failed to render receipt HTML for payment %s: %v", paymentID, err)
		return
	}

	pdfBytes, err := printPDFFromHTML(htmlData)
	if err != nil {
		log.Printf("🔥 Failed to render receipt PDF for payment %s: %v", paymentID, err)
		return
	}

	url, err := uploadReceipt(pdfBytes, payment.ID.String())
	if err != nil {
		log.Printf("🔥 Failed to upload receipt for payment %s: %v", paymentID, err)
		return
	}

	if err := database.DB.Model(&payment).Update("receipt_url", url).Error; err != nil {
		log.Printf("🔥 Failed to save receipt URL for payment %s: %v", paymentID, err)
		return
	}
	log.Printf("✅ Generated receipt for payment %s", paymentID)
}

func renderReceiptHTML(payment *models.PaymentRequest) (string, error) {
	tmpl, err := template.ParseFiles("templates/receipt.html")
	if err != nil {
		return "", err
	}

	txRef := ""
	if payment.TxRef != nil {
		txRef = *payment.TxRef
	}
	data := struct {
		InvestorName string
		PaymentID    string
		AmountUSD    string
		Chain        string
		TxRef        string
		ApprovedDate string
	}{
		InvestorName: payment.User.FullName,
		PaymentID:    payment.ID.String(),
		AmountUSD:    fmt.Sprintf("$%.2f", payment.AmountUSD),
		Chain:        payment.Chain,
		TxRef:        txRef,
		ApprovedDate: time.Now().Format("January 2, 2006"),
	}

	var rendered bytes.Buffer
	if err := tmpl.Execute(&rendered, data); err != nil {
		return "", err
	}
	return rendered.String(), nil
}

func printPDFFromHTML(htmlContent string) ([]byte, error) {
	ctx, cancel := chromedp.NewContext(context.Background())
	defer cancel()

	var pdfBuffer []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.ActionFunc(func(ctx context.Context) error {
			pdf, _, err := page.PrintToPDF().WithPrintBackground(true).Do(ctx)
			if err != nil {
				return err
			}
			pdfBuffer = pdf
			return nil
		}),
	)
	if err != nil {
		return nil, err
	}
	return pdfBuffer, nil
}

func uploadReceipt(fileBytes []byte, paymentID string) (string, error) {
	cld, err := cloudinary.NewFromURL(config.Config("CLOUDINARY_URL"))
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uploadParams := uploader.UploadParams{
		PublicID:     fmt.Sprintf("receipts/%s", paymentID),
		Folder:       "invest_portal_receipts",
		ResourceType: "raw",
	}

	uploadResult, err := cld.Upload.Upload(ctx, bytes.NewReader(fileBytes), uploadParams)
	if err != nil {
		return "", err
	}

	return uploadResult.SecureURL, nil
}
