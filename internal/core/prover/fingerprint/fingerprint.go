// Package fingerprint 计算证明请求的规范化去重键
//
// 🎯 **规范化规则**
//
// 两个请求的指纹相同，当且仅当它们请求的是同一份证明：
//   - 网络名去空白、转小写；
//   - prover 地址与 graffiti 以定长字节参与计算，与十六进制大小写无关；
//   - 只有所选证明类型的后端参数参与计算，且先解码再重新编码
//     （对象键排序、去除空白、数值按值规范化），与字段顺序和排版无关，
//     1000、1e3 与 1000.0 视为同一数值；
//   - l1_inclusive_block_number 未设置与设置为 0 视为不同请求。
//
// 身份元组经 RLP 编码后取 Keccak-256。
package fingerprint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/rlp"

	"github.com/weisyn/proofhost/pkg/types"
)

// maxExponent 参与数值规范化的最大十进制指数，超出的数值按原文参与计算
const maxExponent = 1000

// identity 参与指纹计算的字段（字段顺序即编码顺序，不可调整）
type identity struct {
	Network                string
	L1Network              string
	BlockNumber            uint64
	HasL1InclusiveBlock    bool
	L1InclusiveBlockNumber uint64
	Graffiti               common.Hash
	Prover                 common.Address
	ProofType              string
	BlobProofType          string
	BackendOptions         []byte
}

// Build 计算请求指纹
func Build(req *types.ProofRequest) types.Fingerprint {
	id := identity{
		Network:        canonicalName(req.Network),
		L1Network:      canonicalName(req.L1Network),
		BlockNumber:    req.BlockNumber,
		Graffiti:       req.Graffiti,
		Prover:         req.Prover,
		ProofType:      canonicalName(string(req.ProofType)),
		BlobProofType:  canonicalName(string(req.BlobProofType)),
		BackendOptions: CanonicalOptions(req.BackendOptions()),
	}
	if req.L1InclusiveBlockNumber != nil {
		id.HasL1InclusiveBlock = true
		id.L1InclusiveBlockNumber = *req.L1InclusiveBlockNumber
	}

	encoded, err := rlp.EncodeToBytes(&id)
	if err != nil {
		// identity 只含 RLP 原生支持的类型
		panic(fmt.Sprintf("fingerprint: rlp encode identity: %v", err))
	}
	return types.Fingerprint(crypto.Keccak256Hash(encoded))
}

// CanonicalOptions 返回后端参数的规范化JSON；空参数与 null 返回 nil
//
// 无法解析的参数按原样（去首尾空白）参与计算。
func CanonicalOptions(raw json.RawMessage) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return trimmed
	}
	// encoding/json 对 map 键排序输出
	out, err := json.Marshal(normalizeNumbers(v))
	if err != nil {
		return trimmed
	}
	return out
}

// normalizeNumbers 将解码结果中的每个数值替换为规范形式
func normalizeNumbers(v interface{}) interface{} {
	switch t := v.(type) {
	case json.Number:
		return canonicalNumber(t)
	case map[string]interface{}:
		for k, x := range t {
			t[k] = normalizeNumbers(x)
		}
	case []interface{}:
		for i, x := range t {
			t[i] = normalizeNumbers(x)
		}
	}
	return v
}

// canonicalNumber 按精确值重写数值：整数去掉小数与指数部分，
// 小数写成最短的定点形式（JSON 数值的分母只含因子 2 与 5，定点展开总是有限的）
func canonicalNumber(n json.Number) json.Number {
	s := string(n)
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		exp, err := strconv.Atoi(s[i+1:])
		if err != nil || exp > maxExponent || exp < -maxExponent {
			return n
		}
	}

	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return n
	}
	if r.IsInt() {
		return json.Number(r.Num().String())
	}

	d := new(big.Int).Set(r.Denom())
	twos := int(d.TrailingZeroBits())
	d.Rsh(d, uint(twos))
	fives := 0
	five := big.NewInt(5)
	rem := new(big.Int)
	for {
		q, m := new(big.Int).QuoRem(d, five, rem)
		if m.Sign() != 0 {
			break
		}
		d = q
		fives++
	}
	return json.Number(r.FloatString(max(twos, fives)))
}

func canonicalName(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
