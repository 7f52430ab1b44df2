package main

import (
	"fmt"
	"os"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/contabilflow/backend/shared/utils"
)

// WhatsAppClient talks to an Evolution API gateway. One instance per
// deployment; the instance name maps to the connected WhatsApp number.
type WhatsAppClient struct {
	httpClient *resty.Client
	breaker    *utils.CircuitBreaker
	instance   string
}

// NewWhatsAppClient builds the client from WHATSAPP_API_URL, WHATSAPP_API_KEY
// and WHATSAPP_INSTANCE.
func NewWhatsAppClient() *WhatsAppClient {
	instance := os.Getenv("WHATSAPP_INSTANCE")
	if instance == "" {
		instance = "contabilflow"
	}

	client := resty.New().
		SetBaseURL(os.Getenv("WHATSAPP_API_URL")).
		SetTimeout(15 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("apikey", os.Getenv("WHATSAPP_API_KEY"))

	return &WhatsAppClient{
		httpClient: client,
		breaker:    utils.NewCircuitBreaker(5, 60*time.Second),
		instance:   instance,
	}
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

// SendText delivers a text message to the given phone number.
func (wc *WhatsAppClient) SendText(phone, text string) error {
	return wc.breaker.Call(func() error {
		resp, err := wc.httpClient.R().
			SetBody(sendTextRequest{Number: phone, Text: text}).
			Post(fmt.Sprintf("/message/sendText/%s", wc.instance))
		if err != nil {
			return utils.WrapError(utils.KindTransport, "failed to send WhatsApp message", err)
		}
		if resp.IsError() {
			return utils.NewError(utils.KindTransport,
				fmt.Sprintf("WhatsApp gateway returned status %d", resp.StatusCode()))
		}
		return nil
	})
}

// ConnectionState reports whether the instance is connected to WhatsApp.
func (wc *WhatsAppClient) ConnectionState() (string, error) {
	var result struct {
		Instance struct {
			State string `json:"state"`
		} `json:"instance"`
	}

	err := wc.breaker.Call(func() error {
		resp, err := wc.httpClient.R().
			SetResult(&result).
			Get(fmt.Sprintf("/instance/connectionState/%s", wc.instance))
		if err != nil {
			return utils.WrapError(utils.KindTransport, "failed to check WhatsApp connection", err)
		}
		if resp.IsError() {
			return utils.NewError(utils.KindTransport,
				fmt.Sprintf("WhatsApp gateway returned status %d", resp.StatusCode()))
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return result.Instance.State, nil
}
