package auth_test

import (
	"testing"

	"github.com/perceval/leaderboard/internal/domain/auth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestNewKey(t *testing.T) {
	Convey("Given the key generator", t, func() {
		Convey("When generating a key", func() {
			key, err := auth.NewKey()

			Convey("Then it should be URL-safe and unpadded", func() {
				So(err, ShouldBeNil)
				So(key, ShouldHaveLength, 32) // 24 bytes base64url
				So(key, ShouldNotContainSubstring, "=")
				So(key, ShouldNotContainSubstring, "/")
				So(key, ShouldNotContainSubstring, "+")
			})
		})

		Convey("When generating many keys", func() {
			seen := make(map[string]bool)
			for i := 0; i < 1000; i++ {
				key, err := auth.NewKey()
				So(err, ShouldBeNil)
				seen[key] = true
			}

			Convey("Then they should all be distinct", func() {
				So(len(seen), ShouldEqual, 1000)
			})
		})
	})
}
