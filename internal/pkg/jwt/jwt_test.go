package jwt

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestJWT(t *testing.T) {
	Convey("JWT 签发和校验", t, func() {
		j := NewJWT("test-secret", time.Hour)

		Convey("签发的令牌可以通过校验", func() {
			token, err := j.GenerateToken("user-1", "alice")
			So(err, ShouldBeNil)
			So(token, ShouldNotBeEmpty)

			claims, err := j.ValidateToken(token)
			So(err, ShouldBeNil)
			So(claims.UserID, ShouldEqual, "user-1")
			So(claims.Name, ShouldEqual, "alice")
		})

		Convey("密钥不匹配时校验失败", func() {
			token, err := j.GenerateToken("user-1", "alice")
			So(err, ShouldBeNil)

			other := NewJWT("other-secret", time.Hour)
			_, err = other.ValidateToken(token)
			So(err, ShouldEqual, ErrInvalidToken)
		})

		Convey("过期令牌返回过期错误", func() {
			expired := NewJWT("test-secret", -time.Minute)
			token, err := expired.GenerateToken("user-1", "alice")
			So(err, ShouldBeNil)

			_, err = j.ValidateToken(token)
			So(err, ShouldEqual, ErrExpiredToken)
		})

		Convey("非法字符串不是合法令牌", func() {
			_, err := j.ValidateToken("not-a-token")
			So(err, ShouldEqual, ErrInvalidToken)
		})
	})
}
