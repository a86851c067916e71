package smartyield

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const smartYieldABIJSON = `[
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "underlyingIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "tokensOut", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "fee", "type": "uint256"}
    ],
    "name": "BuyTokens",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "seller", "type": "address"},
      {"indexed": false, "internalType": "uint256", "name": "tokensIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "underlyingOut", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "forfeits", "type": "uint256"}
    ],
    "name": "SellTokens",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "buyer", "type": "address"},
      {"indexed": true, "internalType": "uint256", "name": "seniorBondId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "underlyingIn", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "gain", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "forDays", "type": "uint256"}
    ],
    "name": "BuySeniorBond",
    "type": "event"
  },
  {
    "anonymous": false,
    "inputs": [
      {"indexed": true, "internalType": "address", "name": "owner", "type": "address"},
      {"indexed": true, "internalType": "uint256", "name": "seniorBondId", "type": "uint256"},
      {"indexed": false, "internalType": "uint256", "name": "fee", "type": "uint256"}
    ],
    "name": "RedeemSeniorBond",
    "type": "event"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "underlyingAmount_", "type": "uint256"},
      {"internalType": "uint256", "name": "minTokens_", "type": "uint256"},
      {"internalType": "uint256", "name": "deadline_", "type": "uint256"}
    ],
    "name": "buyTokens",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "tokenAmount_", "type": "uint256"},
      {"internalType": "uint256", "name": "minUnderlying_", "type": "uint256"},
      {"internalType": "uint256", "name": "deadline_", "type": "uint256"}
    ],
    "name": "sellTokens",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [
      {"internalType": "uint256", "name": "principalAmount_", "type": "uint256"},
      {"internalType": "uint256", "name": "minGain_", "type": "uint256"},
      {"internalType": "uint256", "name": "deadline_", "type": "uint256"},
      {"internalType": "uint16", "name": "forDays_", "type": "uint16"}
    ],
    "name": "buyBond",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "bondId_", "type": "uint256"}],
    "name": "redeemBond",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "pool",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "price",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

// The provider holds the pool's underlying and pulls deposits.
const providerABIJSON = `[
  {
    "inputs": [],
    "name": "uToken",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

var (
	smartYieldABI     abi.ABI
	smartYieldABIOnce sync.Once
	smartYieldABIErr  error

	providerABI     abi.ABI
	providerABIOnce sync.Once
	providerABIErr  error
)

// SmartYieldABI returns the parsed SmartYield pool ABI.
func SmartYieldABI() (abi.ABI, error) {
	smartYieldABIOnce.Do(func() {
		smartYieldABI, smartYieldABIErr = abi.JSON(strings.NewReader(smartYieldABIJSON))
	})
	return smartYieldABI, smartYieldABIErr
}

func providerABIInstance() (abi.ABI, error) {
	providerABIOnce.Do(func() {
		providerABI, providerABIErr = abi.JSON(strings.NewReader(providerABIJSON))
	})
	return providerABI, providerABIErr
}
