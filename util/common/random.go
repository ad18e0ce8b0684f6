package common

import (
	"crypto/rand"
	"math/big"
)

var allSeq = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

func Random(n int) string {
	runes := make([]rune, n)
	max := big.NewInt(int64(len(allSeq)))
	for i := range runes {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic(err)
		}
		runes[i] = allSeq[idx.Int64()]
	}
	return string(runes)
}
