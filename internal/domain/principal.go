package domain

// PrincipalKind 鉴权后请求主体的类型
type PrincipalKind string

const (
	KindCustomer PrincipalKind = "customer"
	KindSeller   PrincipalKind = "seller"
	KindAdmin    PrincipalKind = "admin"
)

// Principal Customer | Seller | Admin 三选一，在鉴权中间件里一次确定
type Principal struct {
	Kind   PrincipalKind
	User   *User   // Customer / Admin
	Seller *Seller // Seller
}

func CustomerPrincipal(u *User) Principal {
	if u.Role == "admin" {
		return Principal{Kind: KindAdmin, User: u}
	}
	return Principal{Kind: KindCustomer, User: u}
}

func SellerPrincipal(s *Seller) Principal { return Principal{Kind: KindSeller, Seller: s} }

func (p Principal) ID() string {
	if p.Kind == KindSeller {
		if p.Seller != nil {
			return p.Seller.ID
		}
		return ""
	}
	if p.User != nil {
		return p.User.ID
	}
	return ""
}

// Role 与 JWT 中的 role 一致：user / seller / admin
func (p Principal) Role() string {
	switch p.Kind {
	case KindSeller:
		return "seller"
	case KindAdmin:
		return "admin"
	default:
		return "user"
	}
}

func (p Principal) Active() bool {
	if p.Kind == KindSeller {
		return p.Seller != nil && p.Seller.IsActive
	}
	return p.User != nil && p.User.IsActive
}
