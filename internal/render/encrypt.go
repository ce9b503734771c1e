package render

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ProtonMail/go-crypto/openpgp"
	"github.com/ProtonMail/go-crypto/openpgp/packet"

	"github.com/postalhub/letter-dispatch/internal/models"
)

// selectEncryptionKey picks the sub-key explicitly flagged for encryption
// use. A key ring may carry a sign-only primary plus one or more encryption
// sub-keys; taking the first key found can silently produce an unusable
// ciphertext, so selection is explicit. The primary key is acceptable only
// when it is itself encryption-flagged.
func selectEncryptionKey(entity *openpgp.Entity) (*packet.PublicKey, error) {
	for _, sub := range entity.Subkeys {
		if sub.PublicKey == nil || sub.Sig == nil {
			continue
		}
		if !sub.Sig.FlagsValid || !(sub.Sig.FlagEncryptStorage || sub.Sig.FlagEncryptCommunications) {
			continue
		}
		if !sub.PublicKey.PubKeyAlgo.CanEncrypt() {
			continue
		}
		return sub.PublicKey, nil
	}

	for _, ident := range entity.Identities {
		sig := ident.SelfSignature
		if sig == nil || !sig.FlagsValid {
			continue
		}
		if (sig.FlagEncryptStorage || sig.FlagEncryptCommunications) && entity.PrimaryKey.PubKeyAlgo.CanEncrypt() {
			return entity.PrimaryKey, nil
		}
	}

	return nil, fmt.Errorf("%w: key ring carries no encryption-capable key", models.ErrEncryption)
}

func loadRecipient(armoredKey string) (*openpgp.Entity, *packet.PublicKey, error) {
	entities, err := openpgp.ReadArmoredKeyRing(strings.NewReader(armoredKey))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: unparseable public key: %v", models.ErrEncryption, err)
	}
	if len(entities) == 0 {
		return nil, nil, fmt.Errorf("%w: key ring is empty", models.ErrEncryption)
	}

	for _, entity := range entities {
		key, err := selectEncryptionKey(entity)
		if err == nil {
			return entity, key, nil
		}
	}

	return nil, nil, fmt.Errorf("%w: key ring carries no encryption-capable key", models.ErrEncryption)
}

// Encrypt produces an OpenPGP message for the recipient key: the payload is
// compressed, then encrypted under a symmetric session key wrapped for the
// recipient, with an integrity-check packet included. Returns the ciphertext
// and the hex fingerprint of the selected encryption key.
func Encrypt(zipped []byte, armoredKey string) ([]byte, string, error) {
	entity, key, err := loadRecipient(armoredKey)
	if err != nil {
		return nil, "", err
	}
	fingerprint := hex.EncodeToString(key.Fingerprint)

	cfg := &packet.Config{
		DefaultCompressionAlgo: packet.CompressionZLIB,
		CompressionConfig:      &packet.CompressionConfig{Level: packet.DefaultCompression},
	}

	var ciphertext bytes.Buffer
	plaintext, err := openpgp.Encrypt(&ciphertext, []*openpgp.Entity{entity}, nil, nil, cfg)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrEncryption, err)
	}
	if _, err := plaintext.Write(zipped); err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrEncryption, err)
	}
	if err := plaintext.Close(); err != nil {
		return nil, "", fmt.Errorf("%w: %v", models.ErrEncryption, err)
	}

	return ciphertext.Bytes(), fingerprint, nil
}
