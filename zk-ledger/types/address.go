package types

import (
	"fmt"
	"strings"

	"github.com/btcsuite/btcutil/base58"
	jubjub "github.com/consensys/gnark-crypto/ecc/bn254/twistededwards/eddsa"
	"github.com/kysee/zkledger/utils"
	"github.com/kysee/zkledger/zk-ledger/crypto"
)

const (
	addrPrefix = "zk"
	addrVer    = 0x01
)

// Address is what a payer needs to create a note for somebody: the
// nullifier commitment that owns the note and the key its opening is
// encrypted to.
type Address struct {
	NfPk   NullifierCommitment
	EncPub *jubjub.PublicKey
}

func EncodeAddress(payload []byte) string {
	return addrPrefix + base58.CheckEncode(payload, addrVer)
}

func DecodeAddress(addr string) ([]byte, error) {
	if !strings.HasPrefix(addr, addrPrefix) {
		return nil, fmt.Errorf("wrong prefix: got(%s)", addr[:min(len(addr), len(addrPrefix))])
	}
	bz, ver, err := base58.CheckDecode(addr[len(addrPrefix):])
	if err != nil {
		return nil, err
	}
	if ver != addrVer {
		return nil, fmt.Errorf("wrong version: expected(%d), got(%d)", addrVer, ver)
	}
	return bz, nil
}

func (a Address) String() string {
	return EncodeAddress(append(a.NfPk[:], a.EncPub.Bytes()...))
}

func ParseAddress(addr string) (Address, error) {
	bz, err := DecodeAddress(addr)
	if err != nil {
		return Address{}, err
	}
	if err := checkLen("address", bz, 64); err != nil {
		return Address{}, err
	}
	pub, err := crypto.PubFromBytes(bz[32:])
	if err != nil {
		return Address{}, err
	}
	var a Address
	copy(a.NfPk[:], bz[:32])
	if err := utils.CheckDigest(a.NfPk); err != nil {
		return Address{}, fmt.Errorf("address nf_pk: %w", err)
	}
	a.EncPub = pub
	return a, nil
}
