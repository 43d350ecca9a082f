package selftest

import (
	"bytes"

	"github.com/johnnyb/desfirecrypto/desfire"
	"github.com/johnnyb/desfirecrypto/lrp"
	"github.com/pkg/errors"
)

func compare(idx int, what string, got, want []byte) error {
	if bytes.Equal(got, want) {
		return nil
	}
	return errors.Errorf("vector %d: %s is %X, want %X", idx+1, what, got, want)
}

func checkCRC(v *vectors) error {
	for idx, vec := range v.CRC {
		for _, s := range vec.Searches {
			if got := desfire.LocateCRC(vec.Data, s.Limit, 0x00, vec.Width); got != s.Want {
				return errors.Errorf("vector %d (%s): limit %d gives %d, want %d", idx+1, vec.Name, s.Limit, got, s.Want)
			}
		}
	}
	return nil
}

func checkCMACSubkeys(v *vectors) error {
	for idx, vec := range v.CMACSubkeys {
		b, err := desfire.NewBlock(vec.Family.Family, vec.Key)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		sk1, sk2, err := desfire.GenerateSubkeys(b)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "K1", sk1, vec.SK1); err != nil {
			return err
		}
		if err := compare(idx, "K2", sk2, vec.SK2); err != nil {
			return err
		}
	}
	return nil
}

func checkDiversification(v *vectors) error {
	for idx, vec := range v.Diversification {
		ctx, err := desfire.NewSecurityContext(0, vec.Family.Family, vec.Key)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := ctx.DiversifyKey(vec.Input); err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "diversified key", ctx.Key(), vec.Result); err != nil {
			return err
		}
	}
	return nil
}

func checkCMAC(v *vectors) error {
	for idx, vec := range v.CMAC.Cases {
		if vec.Length > len(v.CMAC.Message) {
			return errors.Errorf("vector %d: length %d exceeds message", idx+1, vec.Length)
		}
		b, err := desfire.NewBlock(vec.Family.Family, vec.Key)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		mac, err := desfire.ComputeCMAC(b, nil, v.CMAC.Message[:vec.Length])
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "CMAC", mac, vec.Result); err != nil {
			return err
		}
	}
	return nil
}

func checkEV2SessionKeys(v *vectors) error {
	for idx, vec := range v.EV2SessionKeys {
		enc, err := desfire.DeriveEV2SessionKey(vec.Key, vec.RndA, vec.RndB, true)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "SesAuthENCKey", enc, vec.Enc); err != nil {
			return err
		}
		mac, err := desfire.DeriveEV2SessionKey(vec.Key, vec.RndA, vec.RndB, false)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "SesAuthMACKey", mac, vec.MAC); err != nil {
			return err
		}
	}
	return nil
}

func ev2Context(key, ti []byte, counter uint16) (*desfire.SecurityContext, error) {
	ctx, err := desfire.NewSecurityContext(0, desfire.AES128, make([]byte, desfire.AES128.KeySize()))
	if err != nil {
		return nil, err
	}
	if err := ctx.SetSessionKeys(key, key); err != nil {
		return nil, err
	}
	if err := ctx.SetTI(ti); err != nil {
		return nil, err
	}
	ctx.SetCommandCounter(counter)
	return ctx, nil
}

func checkEV2IV(v *vectors) error {
	for idx, vec := range v.EV2IV {
		ctx, err := ev2Context(vec.Key, vec.TI, vec.Counter)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		iv, err := ctx.BuildEV2IV(vec.Command)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "IV", iv, vec.IV); err != nil {
			return err
		}
	}
	return nil
}

func checkEV2MAC(v *vectors) error {
	ctx, err := ev2Context(v.EV2MAC.Key, v.EV2MAC.TI, 0)
	if err != nil {
		return err
	}
	for idx, step := range v.EV2MAC.Steps {
		if step.Increment {
			ctx.IncrementCommandCounter()
		}
		mac, err := ctx.ComputeEV2CMAC(step.Cmd, step.Data)
		if err != nil {
			return errors.Wrapf(err, "step %d", idx+1)
		}
		if err := compare(idx, "MACt", mac, step.MAC); err != nil {
			return err
		}
	}
	return nil
}

func checkTransactionKeys(v *vectors) error {
	for idx, vec := range v.TransactionKeys {
		mac, err := desfire.DeriveTransactionSessionKey(vec.Key, vec.Counter, vec.UID, true)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "SesTMMACKey", mac, vec.MAC); err != nil {
			return err
		}
		enc, err := desfire.DeriveTransactionSessionKey(vec.Key, vec.Counter, vec.UID, false)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "SesTMENCKey", enc, vec.Enc); err != nil {
			return err
		}
	}
	return nil
}

func checkLRPTables(v *vectors) error {
	c, err := lrp.New(v.LRPTables.Key, 0, false)
	if err != nil {
		return err
	}
	for i, want := range v.LRPTables.Plaintexts {
		if i < 0 || i >= lrp.NumPlaintexts {
			return errors.Errorf("plaintext index %d out of range", i)
		}
		if got := c.Plaintext(i); !bytes.Equal(got, want) {
			return errors.Errorf("P%d is %X, want %X", i, got, []byte(want))
		}
	}
	for i, want := range v.LRPTables.UpdatedKeys {
		if i < 0 || i >= lrp.NumUpdatedKeys {
			return errors.Errorf("updated key index %d out of range", i)
		}
		if got := c.UpdatedKey(i); !bytes.Equal(got, want) {
			return errors.Errorf("K%d is %X, want %X", i, got, []byte(want))
		}
	}
	return nil
}

func checkLRPEval(v *vectors) error {
	for idx, vec := range v.LRPEval {
		c, err := lrp.New(vec.Key, vec.KeyIndex, false)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		y, err := c.Eval(vec.IV, vec.Nibbles, vec.Final)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "y", y, vec.Result); err != nil {
			return err
		}
	}
	return nil
}

func checkLRPCounter(v *vectors) error {
	for idx, vec := range v.LRPCounter {
		ctr := append([]byte(nil), vec.Counter...)
		lrp.IncrementCounter(ctr, vec.Nibbles)
		if err := compare(idx, "counter", ctr, vec.Result); err != nil {
			return err
		}
	}
	return nil
}

func lrpStream(vec lrpStreamVector) (*lrp.Context, error) {
	return lrp.NewWithCounter(vec.Key, vec.Counter, 2*len(vec.Counter), 0, vec.Padding)
}

func checkLRPEncode(v *vectors) error {
	for idx, vec := range v.LRPStream {
		c, err := lrpStream(vec)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "ciphertext", c.Encode(vec.Plain), vec.Cipher); err != nil {
			return err
		}
	}
	return nil
}

func checkLRPDecode(v *vectors) error {
	for idx, vec := range v.LRPStream {
		c, err := lrpStream(vec)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		plain, err := c.Decode(vec.Cipher)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "plaintext", plain, vec.Plain); err != nil {
			return err
		}
	}
	return nil
}

func checkLRPSubkeys(v *vectors) error {
	for idx, vec := range v.LRPSubkeys {
		sk1, sk2, err := lrp.GenerateSubkeys(vec.Key)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "K1", sk1, vec.SK1); err != nil {
			return err
		}
		if err := compare(idx, "K2", sk2, vec.SK2); err != nil {
			return err
		}
	}
	return nil
}

func checkLRPCMAC(v *vectors) error {
	for idx, vec := range v.LRPCMAC {
		c, err := lrp.New(vec.Key, 0, true)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "CMAC", c.CMAC(vec.Message), vec.Result); err != nil {
			return err
		}
	}
	return nil
}

func checkLRPSessionKeys(v *vectors) error {
	for idx, vec := range v.LRPSessionKeys {
		sk, err := desfire.DeriveLRPSessionKey(vec.Key, vec.RndA, vec.RndB)
		if err != nil {
			return errors.Wrapf(err, "vector %d", idx+1)
		}
		if err := compare(idx, "session key", sk, vec.Result); err != nil {
			return err
		}
	}
	return nil
}
