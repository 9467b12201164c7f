package paymentgateway

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "amica/internal/shared/errors"
	"amica/internal/shared/logger"
)

// WayForPayConfig holds the merchant credentials and endpoint for the
// WayForPay-style gateway protocol.
type WayForPayConfig struct {
	MerchantAccount string
	MerchantDomain  string
	MerchantSecret  string
	APIURL          string
	RequestTimeout  time.Duration
}

// WayForPayGateway implements the gateway's HMAC-MD5 signature scheme:
// signatures are hex HMAC-MD5 digests over a semicolon-joined canonical
// field list, compared case-insensitively.
type WayForPayGateway struct {
	config WayForPayConfig
	client *http.Client
	logger logger.Interface
}

// Ensure WayForPayGateway implements PaymentGateway
var _ PaymentGateway = (*WayForPayGateway)(nil)

func NewWayForPayGateway(config WayForPayConfig, logger logger.Interface) *WayForPayGateway {
	timeout := config.RequestTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &WayForPayGateway{
		config: config,
		client: &http.Client{Timeout: timeout},
		logger: logger,
	}
}

// sign computes the hex HMAC-MD5 over the semicolon-joined fields.
func (g *WayForPayGateway) sign(fields ...string) string {
	mac := hmac.New(md5.New, []byte(g.config.MerchantSecret))
	mac.Write([]byte(strings.Join(fields, ";")))
	return hex.EncodeToString(mac.Sum(nil))
}

// callbackSignatureFields is the gateway-mandated ordering for the inbound
// notification signature.
func callbackSignatureFields(d *CallbackData) []string {
	return []string{
		d.MerchantAccount,
		d.OrderReference,
		d.Amount,
		d.Currency,
		d.AuthCode,
		d.CardPan,
		d.TransactionStatus,
		d.ReasonCode,
	}
}

// ParseCallback parses an inbound notification (JSON or form-encoded) and
// verifies its signature. Signature problems are reported in
// CallbackData.SignatureState so the handler can still acknowledge the
// gateway; only an unparseable payload is an error.
func (g *WayForPayGateway) ParseCallback(req *http.Request) (*CallbackData, error) {
	body, err := io.ReadAll(io.LimitReader(req.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read callback body: %w", err)
	}

	values, err := parseCallbackBody(req.Header.Get("Content-Type"), body)
	if err != nil {
		return nil, err
	}

	data := &CallbackData{
		MerchantAccount:   values["merchantAccount"],
		OrderReference:    values["orderReference"],
		Amount:            values["amount"],
		Currency:          values["currency"],
		AuthCode:          values["authCode"],
		CardPan:           values["cardPan"],
		TransactionStatus: values["transactionStatus"],
		ReasonCode:        values["reasonCode"],
		Signature:         values["merchantSignature"],
		Raw:               json.RawMessage(body),
	}

	if data.OrderReference == "" {
		return nil, fmt.Errorf("callback carries no order reference")
	}
	if data.TransactionStatus == "" {
		return nil, fmt.Errorf("callback carries no transaction status")
	}

	switch {
	case g.config.MerchantSecret == "":
		data.SignatureState = SignatureSecretMissing
	case strings.EqualFold(g.sign(callbackSignatureFields(data)...), data.Signature):
		data.SignatureState = SignatureOK
	default:
		data.SignatureState = SignatureInvalid
	}

	return data, nil
}

// parseCallbackBody decodes the notification payload. JSON numbers keep
// their exact wire form so signature recomputation matches the gateway.
func parseCallbackBody(contentType string, body []byte) (map[string]string, error) {
	mediaType := contentType
	if mt, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = mt
	}

	values := make(map[string]string)

	if strings.Contains(mediaType, "form-urlencoded") {
		parsed, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("failed to parse form callback: %w", err)
		}
		for k := range parsed {
			values[k] = parsed.Get(k)
		}
		return values, nil
	}

	var raw map[string]any
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to parse JSON callback: %w", err)
	}
	for k, v := range raw {
		switch t := v.(type) {
		case string:
			values[k] = t
		case json.Number:
			values[k] = t.String()
		case bool:
			values[k] = fmt.Sprintf("%t", t)
		}
	}
	return values, nil
}

// AckResponse builds the signed acknowledgement: the signature covers
// orderReference;status;time.
func (g *WayForPayGateway) AckResponse(orderReference string, now time.Time) AckResponse {
	ts := now.Unix()
	return AckResponse{
		OrderReference: orderReference,
		Status:         "accept",
		Time:           ts,
		Signature:      g.sign(orderReference, "accept", fmt.Sprintf("%d", ts)),
	}
}

type statusRequest struct {
	TransactionType string `json:"transactionType"`
	MerchantAccount string `json:"merchantAccount"`
	OrderReference  string `json:"orderReference"`
	Signature       string `json:"merchantSignature"`
	APIVersion      int    `json:"apiVersion"`
}

// CheckStatus issues a signed CHECK_STATUS transaction request to the
// gateway API and verifies the response signature. The HTTP client timeout
// bounds the outbound call so a slow gateway cannot stall the handler.
func (g *WayForPayGateway) CheckStatus(ctx context.Context, orderReference string) (*StatusResult, error) {
	reqBody := statusRequest{
		TransactionType: "CHECK_STATUS",
		MerchantAccount: g.config.MerchantAccount,
		OrderReference:  orderReference,
		Signature:       g.sign(g.config.MerchantAccount, orderReference),
		APIVersion:      1,
	}

	payload, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal status request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.APIURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build status request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("gateway status request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read gateway status response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gateway status request returned HTTP %d", resp.StatusCode)
	}

	values, err := parseCallbackBody("application/json", body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse gateway status response: %w", err)
	}

	transactionStatus := values["transactionStatus"]
	if transactionStatus == "" {
		return nil, apperrors.NewUnrecognizedGatewayStatusError(
			fmt.Sprintf("empty transaction status for order %s", orderReference))
	}

	// The response carries the same canonical signature as a callback.
	if g.config.MerchantSecret != "" {
		expected := g.sign(
			values["merchantAccount"],
			values["orderReference"],
			values["amount"],
			values["currency"],
			values["authCode"],
			values["cardPan"],
			transactionStatus,
			values["reasonCode"],
		)
		if !strings.EqualFold(expected, values["merchantSignature"]) {
			return nil, apperrors.NewSignatureInvalidError(
				fmt.Sprintf("status response signature mismatch for order %s", orderReference))
		}
	}

	mapped, recognized := MapStatus(transactionStatus)
	if !recognized {
		g.logger.Warnw("unrecognized gateway transaction status",
			"order_reference", orderReference,
			"transaction_status", transactionStatus)
	}

	return &StatusResult{
		OrderReference:    orderReference,
		TransactionStatus: transactionStatus,
		MappedStatus:      mapped,
		Recognized:        recognized,
		Raw:               json.RawMessage(body),
	}, nil
}

// BuildPurchase assembles the signed purchase form. The signature covers
// merchantAccount;merchantDomainName;orderReference;orderDate;amount;
// currency;productName;productCount;productPrice.
func (g *WayForPayGateway) BuildPurchase(req PurchaseRequest) PurchaseForm {
	amount := formatAmount(req.Amount.AmountFloat())
	form := PurchaseForm{
		MerchantAccount:    g.config.MerchantAccount,
		MerchantDomainName: g.config.MerchantDomain,
		OrderReference:     req.OrderReference,
		OrderDate:          req.OrderDate,
		Amount:             amount,
		Currency:           req.Amount.Currency(),
		ProductName:        req.ProductName,
		ProductCount:       "1",
		ProductPrice:       amount,
	}
	form.Signature = g.sign(
		form.MerchantAccount,
		form.MerchantDomainName,
		form.OrderReference,
		fmt.Sprintf("%d", form.OrderDate),
		form.Amount,
		form.Currency,
		form.ProductName,
		form.ProductCount,
		form.ProductPrice,
	)
	return form
}

// formatAmount renders a decimal amount the way the gateway expects:
// two decimals, no trailing-zero stripping.
func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}
