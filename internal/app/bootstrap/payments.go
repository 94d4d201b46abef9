package bootstrap

import (
	"fmt"
	"strings"

	appconfig "github.com/wolfman30/consult-booking/internal/config"
	"github.com/wolfman30/consult-booking/internal/payments"
	"github.com/wolfman30/consult-booking/pkg/logging"
)

// BuildDispatcher registers the payment methods the configuration enables.
// The hosted redirect needs nothing locally; the widget needs a publishable key.
func BuildDispatcher(cfg *appconfig.Config, backend payments.Backend, guard payments.SubmitGuard, observer payments.CheckoutObserver, logger *logging.Logger) (*payments.Dispatcher, error) {
	if cfg == nil {
		return nil, fmt.Errorf("bootstrap: config is required")
	}
	if backend == nil {
		return nil, fmt.Errorf("bootstrap: payments backend is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	methods := []payments.PaymentMethod{payments.NewHostedRedirect(backend)}
	if key := strings.TrimSpace(cfg.RazorpayKeyID); key != "" {
		methods = append(methods, payments.NewWidgetVerify(backend, key, cfg.PaymentThemeColor))
	} else {
		logger.Warn("RAZORPAY_KEY_ID not set; widget checkout disabled")
	}

	d := payments.NewDispatcher(logger, methods...).WithGuard(guard)
	if observer != nil {
		d = d.WithObserver(observer)
	}
	logger.Info("payment methods enabled", "methods", d.Methods())
	return d, nil
}
