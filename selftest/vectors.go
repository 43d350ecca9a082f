package selftest

import (
	"bytes"
	_ "embed"
	"encoding/hex"
	"strings"

	"github.com/johnnyb/desfirecrypto/desfire"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed vectors.yaml
var vectorsYAML []byte

// hexBytes decodes a YAML string of hex digits. Spaces are allowed between
// groups.
type hexBytes []byte

func (h *hexBytes) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	b, err := hex.DecodeString(strings.ReplaceAll(s, " ", ""))
	if err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	*h = b
	return nil
}

type family struct {
	desfire.Family
}

func (f *family) UnmarshalYAML(n *yaml.Node) error {
	var s string
	if err := n.Decode(&s); err != nil {
		return err
	}
	fam, err := desfire.ParseFamily(s)
	if err != nil {
		return errors.Wrapf(err, "line %d", n.Line)
	}
	f.Family = fam
	return nil
}

type crcSearch struct {
	Limit int `yaml:"limit"`
	Want  int `yaml:"want"`
}

type crcVector struct {
	Name     string      `yaml:"name"`
	Width    int         `yaml:"width"`
	Data     hexBytes    `yaml:"data"`
	Searches []crcSearch `yaml:"searches"`
}

type subkeyVector struct {
	Family family   `yaml:"family"`
	Key    hexBytes `yaml:"key"`
	SK1    hexBytes `yaml:"sk1"`
	SK2    hexBytes `yaml:"sk2"`
}

type diversificationVector struct {
	Family family   `yaml:"family"`
	Key    hexBytes `yaml:"key"`
	Input  hexBytes `yaml:"input"`
	Result hexBytes `yaml:"result"`
}

type cmacCase struct {
	Family family   `yaml:"family"`
	Key    hexBytes `yaml:"key"`
	Length int      `yaml:"length"`
	Result hexBytes `yaml:"result"`
}

type cmacVectors struct {
	Message hexBytes   `yaml:"message"`
	Cases   []cmacCase `yaml:"cases"`
}

type ev2SessionVector struct {
	Key  hexBytes `yaml:"key"`
	RndA hexBytes `yaml:"rndA"`
	RndB hexBytes `yaml:"rndB"`
	Enc  hexBytes `yaml:"enc"`
	MAC  hexBytes `yaml:"mac"`
}

type ev2IVVector struct {
	Key     hexBytes `yaml:"key"`
	TI      hexBytes `yaml:"ti"`
	Counter uint16   `yaml:"counter"`
	Command bool     `yaml:"command"`
	IV      hexBytes `yaml:"iv"`
}

type ev2MACStep struct {
	Cmd       uint8    `yaml:"cmd"`
	Increment bool     `yaml:"increment"`
	Data      hexBytes `yaml:"data"`
	MAC       hexBytes `yaml:"mac"`
}

type ev2MACVectors struct {
	Key   hexBytes     `yaml:"key"`
	TI    hexBytes     `yaml:"ti"`
	Steps []ev2MACStep `yaml:"steps"`
}

type transactionVector struct {
	Key     hexBytes `yaml:"key"`
	UID     hexBytes `yaml:"uid"`
	Counter uint32   `yaml:"counter"`
	MAC     hexBytes `yaml:"mac"`
	Enc     hexBytes `yaml:"enc"`
}

type lrpTablesVectors struct {
	Key         hexBytes         `yaml:"key"`
	Plaintexts  map[int]hexBytes `yaml:"plaintexts"`
	UpdatedKeys map[int]hexBytes `yaml:"updatedKeys"`
}

type lrpEvalVector struct {
	Key      hexBytes `yaml:"key"`
	KeyIndex int      `yaml:"keyIndex"`
	IV       hexBytes `yaml:"iv"`
	Nibbles  int      `yaml:"nibbles"`
	Final    bool     `yaml:"final"`
	Result   hexBytes `yaml:"result"`
}

type lrpCounterVector struct {
	Counter hexBytes `yaml:"counter"`
	Nibbles int      `yaml:"nibbles"`
	Result  hexBytes `yaml:"result"`
}

type lrpStreamVector struct {
	Key     hexBytes `yaml:"key"`
	Counter hexBytes `yaml:"counter"`
	Padding bool     `yaml:"padding"`
	Plain   hexBytes `yaml:"plain"`
	Cipher  hexBytes `yaml:"cipher"`
}

type lrpSubkeyVector struct {
	Key hexBytes `yaml:"key"`
	SK1 hexBytes `yaml:"sk1"`
	SK2 hexBytes `yaml:"sk2"`
}

type lrpCMACVector struct {
	Key     hexBytes `yaml:"key"`
	Message hexBytes `yaml:"message"`
	Result  hexBytes `yaml:"result"`
}

type lrpSessionVector struct {
	Key    hexBytes `yaml:"key"`
	RndA   hexBytes `yaml:"rndA"`
	RndB   hexBytes `yaml:"rndB"`
	Result hexBytes `yaml:"result"`
}

type vectors struct {
	CRC             []crcVector             `yaml:"crc"`
	CMACSubkeys     []subkeyVector          `yaml:"cmacSubkeys"`
	Diversification []diversificationVector `yaml:"diversification"`
	CMAC            cmacVectors             `yaml:"cmac"`
	EV2SessionKeys  []ev2SessionVector      `yaml:"ev2SessionKeys"`
	EV2IV           []ev2IVVector           `yaml:"ev2IV"`
	EV2MAC          ev2MACVectors           `yaml:"ev2MAC"`
	TransactionKeys []transactionVector     `yaml:"transactionKeys"`
	LRPTables       lrpTablesVectors        `yaml:"lrpTables"`
	LRPEval         []lrpEvalVector         `yaml:"lrpEval"`
	LRPCounter      []lrpCounterVector      `yaml:"lrpCounter"`
	LRPStream       []lrpStreamVector       `yaml:"lrpStream"`
	LRPSubkeys      []lrpSubkeyVector       `yaml:"lrpSubkeys"`
	LRPCMAC         []lrpCMACVector         `yaml:"lrpCMAC"`
	LRPSessionKeys  []lrpSessionVector      `yaml:"lrpSessionKeys"`
}

func loadVectors(content []byte) (*vectors, error) {
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var v vectors
	if err := dec.Decode(&v); err != nil {
		return nil, errors.Wrap(err, "parse vectors yaml")
	}
	return &v, nil
}
