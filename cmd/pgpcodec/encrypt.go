package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/crypto/openpgp/armor"

	"github.com/letsencrypt-labs/pgpcodec/openpgp"
	"github.com/letsencrypt-labs/pgpcodec/openpgp/packet"
)

func newEncryptCommand() *cobra.Command {
	var keyFile, outFile string

	cmd := &cobra.Command{
		Use:   "encrypt <file>",
		Short: "Encrypt a file to an ASCII-armored OpenPGP message",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pub, err := readPublicKey(keyFile)
			if err != nil {
				return fmt.Errorf("reading public key: %w", err)
			}

			body, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading input file: %w", err)
			}

			out, closeOut, err := openOutput(outFile)
			if err != nil {
				return err
			}
			defer closeOut()

			armorWriter, err := armor.Encode(out, "PGP MESSAGE", nil)
			if err != nil {
				return fmt.Errorf("opening armor writer: %w", err)
			}

			logrus.WithField("key id", fmt.Sprintf("%016X", pub.KeyId)).Debug("encrypting message")
			if err := openpgp.EncryptMessage(armorWriter, pub, fileNameOf(args[0]), body, nil); err != nil {
				return fmt.Errorf("encrypting message: %w", err)
			}
			return armorWriter.Close()
		},
	}

	cmd.Flags().StringVarP(&keyFile, "key", "k", "", "path to the recipient's public key packet")
	cmd.Flags().StringVarP(&outFile, "output", "o", "", "output file (default stdout)")
	cmd.MarkFlagRequired("key")
	return cmd
}

func readPublicKey(path string) (*packet.PublicKey, error) {
	raw, err := readPacketBody(path, packet.TagPublicKey, packet.TagPublicSubkey)
	if err != nil {
		return nil, err
	}
	pub := new(packet.PublicKey)
	if err := pub.Parse(raw); err != nil {
		return nil, err
	}
	return pub, nil
}

// readPacketBody reads a (possibly ASCII-armored) file containing a
// single OpenPGP packet and returns its body if its tag matches one
// of wantTags.
func readPacketBody(path string, wantTags ...packet.Tag) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	r := io.Reader(bytes.NewReader(data))
	if block, err := armor.Decode(bytes.NewReader(data)); err == nil {
		r = block.Body
	}

	raw, err := packet.NewReader(r).Next()
	if err != nil {
		return nil, err
	}
	for _, want := range wantTags {
		if raw.Tag == want {
			return raw.Body, nil
		}
	}
	return nil, fmt.Errorf("unexpected packet tag %d in %s", raw.Tag, path)
}

func openOutput(path string) (*os.File, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, nil, err
	}
	return f, func() { f.Close() }, nil
}

func fileNameOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[i+1:]
		}
	}
	return path
}
