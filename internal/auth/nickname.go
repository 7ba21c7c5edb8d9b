package auth

import (
	"crypto/rand"
	"fmt"
	"math/big"
)

// Social signups arrive without a nickname, so we generate one the
// user can change later.

var nicknameAdjectives = []string{
	"다정한", "씩씩한", "포근한", "명랑한", "수줍은",
	"부지런한", "느긋한", "용감한", "상냥한", "엉뚱한",
}

var nicknameAnimals = []string{
	"고슴도치", "수달", "너구리", "다람쥐", "올빼미",
	"물개", "사막여우", "판다", "알파카", "두더지",
}

func randomNickname() string {
	adj := nicknameAdjectives[randomIndex(len(nicknameAdjectives))]
	animal := nicknameAnimals[randomIndex(len(nicknameAnimals))]
	n := randomIndex(1000)
	return fmt.Sprintf("%s %s%03d", adj, animal, n)
}

func randomIndex(n int) int {
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		panic("auth: crypto/rand unavailable: " + err.Error())
	}
	return int(v.Int64())
}
