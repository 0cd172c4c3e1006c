package auth_test

import (
	"time"

	"github.com/frahmantamala/pisda/internal"
	"github.com/frahmantamala/pisda/internal/auth"
	"github.com/frahmantamala/pisda/internal/core/role"
	"github.com/frahmantamala/pisda/internal/user"
	"github.com/golang-jwt/jwt/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("JWTTokenGenerator", func() {
	var (
		generator *auth.JWTTokenGenerator
		account   *user.User
	)

	BeforeEach(func() {
		generator = auth.NewJWTTokenGenerator(testSecret, time.Hour)
		account = &user.User{ID: 42, Username: "alice", Role: role.Editor}
	})

	It("should round trip the account claims", func() {
		token, err := generator.GenerateToken(account)
		Expect(err).NotTo(HaveOccurred())
		Expect(token).NotTo(BeEmpty())

		claims, err := generator.ValidateToken(token)
		Expect(err).NotTo(HaveOccurred())
		Expect(claims.UserID).To(Equal(int64(42)))
		Expect(claims.Username).To(Equal("alice"))
		Expect(claims.Role).To(Equal("editor"))
		Expect(claims.Subject).To(Equal("42"))
	})

	It("should default the lifetime to seven days", func() {
		Expect(auth.NewJWTTokenGenerator(testSecret, 0).TTL).To(Equal(7 * 24 * time.Hour))
	})

	It("should reject expired tokens", func() {
		expired := auth.NewJWTTokenGenerator(testSecret, time.Hour)
		expired.TTL = -time.Minute
		token, err := expired.GenerateToken(account)
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(token)
		Expect(err).To(MatchError(internal.ErrTokenExpired))
	})

	It("should reject tokens signed with another secret", func() {
		other := auth.NewJWTTokenGenerator("another-secret-that-is-long-enough-too", time.Hour)
		token, err := other.GenerateToken(account)
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(token)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("should reject unsigned tokens", func() {
		token := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{UserID: 42})
		raw, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
		Expect(err).NotTo(HaveOccurred())

		_, err = generator.ValidateToken(raw)
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})

	It("should reject garbage", func() {
		_, err := generator.ValidateToken("not-a-token")
		Expect(err).To(MatchError(internal.ErrInvalidToken))
	})
})
