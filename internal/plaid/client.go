// Package plaid syncs bank transactions from the Plaid API so that
// classification requests can be backfilled from them.
package plaid

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/plaid/plaid-go/v20/plaid"
	"github.com/shopspring/decimal"

	"github.com/Veraticus/spicecat/internal/classify"
	"github.com/Veraticus/spicecat/internal/common"
	"github.com/Veraticus/spicecat/internal/model"
)

const (
	dateLayout = "2006-01-02"
	pageSize   = int32(500) // Plaid's max page size
)

// Config holds Plaid API configuration.
type Config struct {
	ClientID    string
	Secret      string
	Environment string // sandbox or production
	AccessToken string
	UserID      string // Stamped on every fetched transaction
}

// Validate ensures all required fields are present.
func (c *Config) Validate() error {
	switch {
	case c.ClientID == "":
		return fmt.Errorf("%w: plaid client ID is required", common.ErrMissingConfig)
	case c.Secret == "":
		return fmt.Errorf("%w: plaid secret is required", common.ErrMissingConfig)
	case c.AccessToken == "":
		return fmt.Errorf("%w: plaid access token is required", common.ErrMissingConfig)
	case c.Environment == "":
		return fmt.Errorf("%w: plaid environment is required", common.ErrMissingConfig)
	case c.Environment != "sandbox" && c.Environment != "production":
		return fmt.Errorf("%w: plaid environment must be sandbox or production, got %q", common.ErrInvalidConfig, c.Environment)
	}
	return nil
}

// Client implements TransactionFetcher against the Plaid API.
type Client struct {
	client      *plaid.APIClient
	logger      *slog.Logger
	retryOpts   common.RetryOptions
	accessToken string
	userID      string
}

// NewClient creates a new Plaid client with the given configuration.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	configuration := plaid.NewConfiguration()
	configuration.AddDefaultHeader("PLAID-CLIENT-ID", cfg.ClientID)
	configuration.AddDefaultHeader("PLAID-SECRET", cfg.Secret)
	if cfg.Environment == "production" {
		configuration.UseEnvironment(plaid.Production)
	} else {
		configuration.UseEnvironment(plaid.Sandbox)
	}

	retry := common.DefaultRetryOptions()
	retry.InitialDelay = time.Second

	return &Client{
		client:      plaid.NewAPIClient(configuration),
		accessToken: cfg.AccessToken,
		userID:      cfg.UserID,
		logger:      slog.Default().With("component", "plaid"),
		retryOpts:   retry,
	}, nil
}

// GetTransactions fetches every transaction posted between startDate and
// endDate, following Plaid's offset pagination.
func (c *Client) GetTransactions(ctx context.Context, startDate, endDate time.Time) ([]model.Transaction, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}
	if startDate.After(endDate) {
		return nil, errors.New("start date must be before end date")
	}

	c.logger.Info("Fetching transactions from Plaid",
		"start_date", startDate.Format(dateLayout),
		"end_date", endDate.Format(dateLayout))

	var fetched []plaid.Transaction
	for offset := int32(0); ; offset += pageSize {
		var page []plaid.Transaction

		err := common.WithRetry(ctx, func() error {
			request := plaid.NewTransactionsGetRequest(c.accessToken, startDate.Format(dateLayout), endDate.Format(dateLayout))
			request.SetOptions(plaid.TransactionsGetRequestOptions{
				Count:  plaid.PtrInt32(pageSize),
				Offset: plaid.PtrInt32(offset),
			})

			resp, _, err := c.client.PlaidApi.TransactionsGet(ctx).TransactionsGetRequest(*request).Execute()
			if err != nil {
				return c.wrapError(err, "failed to fetch transactions")
			}

			page = resp.GetTransactions()
			c.logger.Debug("Fetched transaction batch",
				"count", len(page),
				"offset", offset,
				"total", resp.GetTotalTransactions())
			return nil
		}, c.retryOpts)
		if err != nil {
			return nil, err
		}

		fetched = append(fetched, page...)
		if len(page) < int(pageSize) {
			break
		}
	}

	c.logger.Info("Fetched all transactions", "count", len(fetched))

	transactions := make([]model.Transaction, 0, len(fetched))
	for _, pt := range fetched {
		transactions = append(transactions, mapTransaction(pt, c.userID))
	}
	return transactions, nil
}

// GetAccounts fetches the account ids linked to the access token.
func (c *Client) GetAccounts(ctx context.Context) ([]string, error) {
	if ctx == nil {
		return nil, errors.New("context cannot be nil")
	}

	var accounts []plaid.AccountBase
	err := common.WithRetry(ctx, func() error {
		request := plaid.NewAccountsGetRequest(c.accessToken)
		resp, _, err := c.client.PlaidApi.AccountsGet(ctx).AccountsGetRequest(*request).Execute()
		if err != nil {
			return c.wrapError(err, "failed to fetch accounts")
		}
		accounts = resp.GetAccounts()
		return nil
	}, c.retryOpts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(accounts))
	for _, account := range accounts {
		ids = append(ids, account.GetAccountId())
	}
	return ids, nil
}

// wrapError marks rate limits as retryable and everything else as final.
func (c *Client) wrapError(err error, msg string) error {
	plaidErr, convErr := plaid.ToPlaidError(err)
	if convErr != nil {
		return fmt.Errorf("%s: %w", msg, err)
	}
	if plaidErr.ErrorCode == "RATE_LIMIT_EXCEEDED" {
		c.logger.Warn("Rate limit hit, will retry", "error", plaidErr.ErrorMessage)
		return &common.RetryableError{Err: fmt.Errorf("%w: %s", common.ErrPlaidRateLimit, plaidErr.ErrorMessage), Retryable: true}
	}
	return &common.RetryableError{
		Err:       fmt.Errorf("%w: %s - %s", common.ErrPlaidConnection, plaidErr.ErrorCode, plaidErr.ErrorMessage),
		Retryable: false,
	}
}

// mapTransaction converts a Plaid transaction to the stored model. Plaid
// reports money out as positive; stored amounts are magnitudes.
func mapTransaction(pt plaid.Transaction, userID string) model.Transaction {
	posted, err := time.Parse(dateLayout, pt.GetDate())
	if err != nil {
		slog.Warn("Failed to parse transaction date", "transaction_id", pt.GetTransactionId(), "date", pt.GetDate(), "error", err)
	}

	description := pt.GetName()

	return model.Transaction{
		ID:                    pt.GetTransactionId(),
		UserID:                userID,
		PostedAt:              posted,
		Amount:                decimal.NewFromFloat(pt.GetAmount()).Abs(),
		Currency:              pt.GetIsoCurrencyCode(),
		RawDescription:        description,
		NormalizedDescription: classify.Normalize(description),
		Channel:               channelFor(pt.GetPaymentChannel()),
		Geo:                   geoFor(pt.GetLocation()),
		AccountID:             pt.GetAccountId(),
	}
}

func channelFor(paymentChannel string) string {
	switch paymentChannel {
	case "online":
		return "ecom"
	case "in store", "in_store":
		return "pos"
	default:
		return ""
	}
}

func geoFor(loc plaid.Location) map[string]any {
	geo := make(map[string]any)
	if city := loc.GetCity(); city != "" {
		geo["city"] = city
	}
	if region := loc.GetRegion(); region != "" {
		geo["region"] = region
	}
	if country := loc.GetCountry(); country != "" {
		geo["country"] = country
	}
	if lat, ok := loc.GetLatOk(); ok && lat != nil {
		geo["lat"] = *lat
	}
	if lon, ok := loc.GetLonOk(); ok && lon != nil {
		geo["lon"] = *lon
	}
	if len(geo) == 0 {
		return nil
	}
	return geo
}

var _ TransactionFetcher = (*Client)(nil)
