// Package ledger implements C3, the ledger client: Stellar-compatible
// keypair generation, test-account funding, and memo-bearing payment
// anchoring. Grounded on the pack's stellar/go dependency (elsewhere
// used only for ledger ingestion); this is the first place the pack
// submits a transaction rather than only reading one.
package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/stellar/go/clients/horizonclient"
	"github.com/stellar/go/keypair"
	"github.com/stellar/go/network"
	"github.com/stellar/go/txnbuild"

	"github.com/ndavault/ndavault/apierr"
	"github.com/ndavault/ndavault/internal/metrics"
)

// anchorAmount is the nominal payment value carried by every anchoring
// transaction; the value itself is not meaningful, only the memo and
// the fact of submission.
const anchorAmount = "0.0000001"

// Client abstracts the Stellar-compatible ledger, scoped by network
// (testnet or public).
type Client struct {
	horizon            *horizonclient.Client
	networkPassphrase  string
	requestTimeout     time.Duration
}

// New constructs a Client for the given network name ("testnet" or
// "public") with the given per-call timeout.
func New(networkName string, requestTimeout time.Duration) *Client {
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}

	var horizon *horizonclient.Client
	var passphrase string
	switch networkName {
	case "public":
		horizon = horizonclient.DefaultPublicNetClient
		passphrase = network.PublicNetworkPassphrase
	default:
		horizon = horizonclient.DefaultTestNetClient
		passphrase = network.TestNetworkPassphrase
	}

	return &Client{
		horizon:           horizon,
		networkPassphrase: passphrase,
		requestTimeout:    requestTimeout,
	}
}

// NewAccount generates an Ed25519-class keypair. It performs no
// network I/O.
func NewAccount() (publicKey, secretKey string, err error) {
	kp, genErr := keypair.Random()
	if genErr != nil {
		return "", "", apierr.Wrap(apierr.Internal, "generate ledger keypair", genErr)
	}
	return kp.Address(), kp.Seed(), nil
}

// FundTestAccount requests test-network funding for publicKey via
// Friendbot. It is idempotent: funding an already-funded account is
// not an error from the caller's perspective of "the account now has
// funds". Callers (the identity service) treat a failure here as
// fatal to registration.
func (c *Client) FundTestAccount(ctx context.Context, publicKey string) error {
	return c.withTimeout(ctx, func() error {
		_, err := c.horizon.Fund(publicKey)
		if err != nil {
			return apierr.Wrap(apierr.Integration, "fund test account", err)
		}
		return nil
	})
}

// AnchorShare constructs a minimal payment operation from the holder
// of senderSecret to recipientPublic, with memo set to a short text
// encoding the process id, signs it, submits it, and returns the hex
// transaction hash once accepted.
func (c *Client) AnchorShare(ctx context.Context, senderSecret, recipientPublic, memo string) (string, error) {
	metrics.LedgerAnchorsAttempted.Inc()
	start := time.Now()

	var hash string
	err := c.withTimeout(ctx, func() error {
		senderKP, err := keypair.ParseFull(senderSecret)
		if err != nil {
			return apierr.Wrap(apierr.Internal, "parse sender secret", err)
		}

		sourceAccount, err := c.horizon.AccountDetail(horizonclient.AccountRequest{AccountID: senderKP.Address()})
		if err != nil {
			return apierr.Wrap(apierr.Integration, "load sender account", err)
		}

		tx, err := txnbuild.NewTransaction(txnbuild.TransactionParams{
			SourceAccount:        &sourceAccount,
			IncrementSequenceNum: true,
			BaseFee:              txnbuild.MinBaseFee,
			Memo:                 txnbuild.MemoText(memo),
			Preconditions:        txnbuild.Preconditions{TimeBounds: txnbuild.NewTimeout(int64(c.requestTimeout.Seconds()))},
			Operations: []txnbuild.Operation{
				&txnbuild.Payment{
					Destination: recipientPublic,
					Amount:      anchorAmount,
					Asset:       txnbuild.NativeAsset{},
				},
			},
		})
		if err != nil {
			return apierr.Wrap(apierr.Internal, "build anchor transaction", err)
		}

		signed, err := tx.Sign(c.networkPassphrase, senderKP)
		if err != nil {
			return apierr.Wrap(apierr.Internal, "sign anchor transaction", err)
		}

		resp, err := c.horizon.SubmitTransaction(signed)
		if err != nil {
			if herr, ok := err.(*horizonclient.Error); ok {
				return apierr.Wrap(apierr.Integration, fmt.Sprintf("transaction rejected: %v", herr.Problem.Title), err)
			}
			return apierr.Wrap(apierr.Integration, "submit anchor transaction", err)
		}

		hash = resp.Hash
		return nil
	})

	metrics.LedgerSubmissionDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		kind := apierr.Internal
		if apiErr, ok := apierr.As(err); ok {
			kind = apiErr.Kind
		}
		metrics.LedgerAnchorsFailed.WithLabelValues(string(kind)).Inc()
	}
	return hash, err
}

// Ping performs a lightweight reachability check against the
// configured Horizon server, for use as a non-critical health check:
// a ledger outage degrades the service rather than failing it.
func (c *Client) Ping(ctx context.Context) error {
	return c.withTimeout(ctx, func() error {
		_, err := c.horizon.Root()
		if err != nil {
			return apierr.Wrap(apierr.Integration, "reach horizon server", err)
		}
		return nil
	})
}

// withTimeout runs fn to completion or returns apierr.Timeout once
// ctx or the client's own request timeout elapses, whichever is
// first. No local state is written on timeout (§5).
func (c *Client) withTimeout(ctx context.Context, fn func() error) error {
	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return apierr.New(apierr.Timeout, "ledger request exceeded timeout")
	}
}
