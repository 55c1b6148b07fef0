// Package ledger reads FOAM signal tokens from the Ethereum SignalToken
// contract with read-only eth_call requests.
//
// Every getter is a separate view call, so a Token is assembled from up to
// seven round trips. Existence is checked first: Read returns a NOT_FOUND
// error without issuing the remaining calls when the token was never minted.
package ledger

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/hex"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/foamviz/signalviz/pkg/errors"
)

// DefaultContract is the SignalToken deployment on Ethereum mainnet.
const DefaultContract = "0x36f16a0d35B866CdD0f3C3FA39e2Ba8F48b099d2"

//go:embed abi/signal_token.json
var signalTokenABI []byte

// Caller executes a read-only contract call. *ethclient.Client satisfies it.
type Caller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Token is the on-chain state of one signal.
type Token struct {
	Exists   bool
	Radius   *big.Int // meters
	Geohash  [32]byte // packed CST cell, not a textual geohash
	MintedOn time.Time
	BurntOn  time.Time // zero when the token is live
	CST      string    // lowercase hex, no 0x prefix
	Stake    *big.Int  // wei
}

// Contract binds the SignalToken ABI to an address.
type Contract struct {
	caller  Caller
	address common.Address
	abi     abi.ABI
	close   func()
}

// LoadABI parses the contract ABI from path, or the embedded SignalToken ABI
// when path is empty.
func LoadABI(path string) (abi.ABI, error) {
	data := signalTokenABI
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return abi.ABI{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read contract abi")
		}
		data = b
	}
	parsed, err := abi.JSON(bytes.NewReader(data))
	if err != nil {
		return abi.ABI{}, errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse contract abi")
	}
	return parsed, nil
}

// NewContract binds address through caller. abiPath may be empty.
func NewContract(caller Caller, address, abiPath string) (*Contract, error) {
	if !common.IsHexAddress(address) {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid contract address %q", address)
	}
	parsed, err := LoadABI(abiPath)
	if err != nil {
		return nil, err
	}
	return &Contract{
		caller:  caller,
		address: common.HexToAddress(address),
		abi:     parsed,
	}, nil
}

// Dial connects to an Ethereum JSON-RPC endpoint and binds the contract.
// The connection is lazy for HTTP endpoints; failures surface on first call.
func Dial(ctx context.Context, rpcURL, address, abiPath string) (*Contract, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, errors.ExternalService(err, "dial ethereum rpc")
	}
	c, err := NewContract(client, address, abiPath)
	if err != nil {
		client.Close()
		return nil, err
	}
	c.close = client.Close
	return c, nil
}

// Close releases the RPC connection if Dial opened one.
func (c *Contract) Close() {
	if c.close != nil {
		c.close()
	}
}

// Address returns the bound contract address.
func (c *Contract) Address() common.Address { return c.address }

// Read fetches every field of token id.
func (c *Contract) Read(ctx context.Context, id *big.Int) (*Token, error) {
	exists, err := c.Exists(ctx, id)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errors.NotFound("signal %s does not exist", id)
	}

	tok := &Token{Exists: true}
	if tok.Radius, err = c.readUint(ctx, "tokenRadius", id); err != nil {
		return nil, err
	}
	if tok.Geohash, err = c.readBytes32(ctx, "tokenGeohash", id); err != nil {
		return nil, err
	}
	minted, err := c.readUint(ctx, "tokenMintedOn", id)
	if err != nil {
		return nil, err
	}
	tok.MintedOn = epoch(minted)
	burnt, err := c.readUint(ctx, "tokenBurntOn", id)
	if err != nil {
		return nil, err
	}
	tok.BurntOn = epoch(burnt)
	if tok.CST, err = c.CST(ctx, id); err != nil {
		return nil, err
	}
	if tok.Stake, err = c.readUint(ctx, "tokenStake", id); err != nil {
		return nil, err
	}
	return tok, nil
}

// Exists reports whether token id has been minted.
func (c *Contract) Exists(ctx context.Context, id *big.Int) (bool, error) {
	out, err := c.call(ctx, "exists", id)
	if err != nil {
		return false, err
	}
	v, ok := out.(bool)
	if !ok {
		return false, unexpected("exists", out)
	}
	return v, nil
}

// CST computes the Crypto-Spatial Coordinate of token id under this contract.
func (c *Contract) CST(ctx context.Context, id *big.Int) (string, error) {
	out, err := c.call(ctx, "computeCST", c.address, id)
	if err != nil {
		return "", err
	}
	v, ok := out.([32]byte)
	if !ok {
		return "", unexpected("computeCST", out)
	}
	return hex.EncodeToString(v[:]), nil
}

func (c *Contract) readUint(ctx context.Context, method string, id *big.Int) (*big.Int, error) {
	out, err := c.call(ctx, method, id)
	if err != nil {
		return nil, err
	}
	v, ok := out.(*big.Int)
	if !ok {
		return nil, unexpected(method, out)
	}
	return v, nil
}

func (c *Contract) readBytes32(ctx context.Context, method string, id *big.Int) ([32]byte, error) {
	out, err := c.call(ctx, method, id)
	if err != nil {
		return [32]byte{}, err
	}
	v, ok := out.([32]byte)
	if !ok {
		return [32]byte{}, unexpected(method, out)
	}
	return v, nil
}

// call packs method(args...), runs it against the latest block and returns
// the single decoded output.
func (c *Contract) call(ctx context.Context, method string, args ...any) (any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "pack %s", method)
	}
	to := c.address
	raw, err := c.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.ExternalService(err, "ledger call %s", method)
	}
	out, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, errors.ExternalService(err, "decode %s result", method)
	}
	if len(out) != 1 {
		return nil, errors.ExternalService(nil, "ledger call %s returned %d values", method, len(out))
	}
	return out[0], nil
}

func unexpected(method string, v any) error {
	return errors.ExternalService(nil, "ledger call %s returned %s", method, fmt.Sprintf("%T", v))
}

func epoch(v *big.Int) time.Time {
	if v == nil || v.Sign() == 0 || !v.IsInt64() {
		return time.Time{}
	}
	return time.Unix(v.Int64(), 0).UTC()
}
