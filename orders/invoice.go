package orders

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"verlo/middleware"
	"verlo/utils"

	"github.com/julienschmidt/httprouter"
	"github.com/phpdave11/gofpdf"
	"github.com/skip2/go-qrcode"
)

// invoiceQRPayload returns a signed payload string: orderID|orderNumber|timestamp|signature
func (h *Handlers) invoiceQRPayload(orderID, orderNumber string) string {
	timestamp := time.Now().Unix()
	data := fmt.Sprintf("%s|%s|%d", orderID, orderNumber, timestamp)

	mac := hmac.New(sha256.New, h.invoiceSecret)
	mac.Write([]byte(data))
	sig := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	return fmt.Sprintf("%s|%s", data, sig)
}

// GET /api/orders/:id/invoice
func (h *Handlers) PrintInvoice(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	userID := middleware.GetUserIDFromRequest(r)

	order, err := h.store.FindByID(ctx, userID, ps.ByName("id"))
	if errors.Is(err, ErrNotFound) {
		utils.RespondError(w, http.StatusNotFound, "Order not found")
		return
	}
	if err != nil {
		log.Println("PrintInvoice lookup error:", err)
		utils.RespondError(w, http.StatusInternalServerError, "Could not retrieve order")
		return
	}

	qrPNG, err := qrcode.Encode(h.invoiceQRPayload(order.ID, order.OrderNumber), qrcode.Medium, 256)
	if err != nil {
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(40, 10, "Invoice")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Order: %s", order.OrderNumber))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Date: %s", order.CreatedAt.Format("2006-01-02")))
	pdf.Ln(6)
	pdf.Cell(0, 8, fmt.Sprintf("Status: %s / payment %s", order.Status, order.Payment.Status))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "Ship to")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 11)
	addr := order.ShippingAddress
	pdf.Cell(0, 6, addr.FullName)
	pdf.Ln(5)
	pdf.Cell(0, 6, addr.Line1)
	pdf.Ln(5)
	if addr.Line2 != "" {
		pdf.Cell(0, 6, addr.Line2)
		pdf.Ln(5)
	}
	pdf.Cell(0, 6, fmt.Sprintf("%s %s, %s", addr.PostalCode, addr.City, addr.Country))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(100, 7, "Item")
	pdf.Cell(25, 7, "Qty")
	pdf.Cell(30, 7, "Unit")
	pdf.Cell(30, 7, "Amount")
	pdf.Ln(7)

	pdf.SetFont("Arial", "", 11)
	for _, item := range order.Items {
		name := item.Name
		if item.Size != "" || item.Color != "" {
			name = fmt.Sprintf("%s (%s %s)", item.Name, item.Size, item.Color)
		}
		pdf.Cell(100, 6, name)
		pdf.Cell(25, 6, fmt.Sprintf("%d", item.Quantity))
		pdf.Cell(30, 6, fmt.Sprintf("%.2f", item.Price))
		pdf.Cell(30, 6, fmt.Sprintf("%.2f", item.Price*float64(item.Quantity)))
		pdf.Ln(6)
	}

	pdf.Ln(4)
	for _, row := range []struct {
		label  string
		amount float64
	}{
		{"Subtotal", order.Subtotal},
		{"Tax", order.Tax},
		{"Shipping", order.ShippingCost},
		{"Total", order.Total},
	} {
		pdf.Cell(125, 6, "")
		pdf.Cell(30, 6, row.label)
		pdf.Cell(30, 6, fmt.Sprintf("%.2f %s", row.amount, order.Payment.Currency))
		pdf.Ln(6)
	}

	imageOpts := gofpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader("qr", imageOpts, bytes.NewReader(qrPNG))
	pdf.ImageOptions("qr", 160, 20, 35, 35, false, imageOpts, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		http.Error(w, "Failed to generate PDF", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=invoice-"+order.OrderNumber+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
