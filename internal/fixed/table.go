package fixed

import "github.com/holiman/uint256"

// exp2Table[k] holds 2^(2^-(k+1)) in 1.128 fixed point, truncated.
var exp2Table = [64]uint256.Int{
	{0xb2fb1366ea957d3e, 0x6a09e667f3bcc908, 0x1, 0}, // 2^(2^-1)
	{0x8d5a46305c85edec, 0x306fe0a31b7152de, 0x1, 0}, // 2^(2^-2)
	{0xf7c8c50eb14a7920, 0x172b83c7d517adcd, 0x1, 0}, // 2^(2^-3)
	{0x8b92b71842a98364, 0x0b5586cf9890f629, 0x1, 0}, // 2^(2^-4)
	{0x7c548eb68ca417fe, 0x059b0d31585743ae, 0x1, 0}, // 2^(2^-5)
	{0xf7caca4f7a29bde9, 0x02c9a3e778060ee6, 0x1, 0}, // 2^(2^-6)
	{0x4a66ae336dcdfa40, 0x0163da9fb33356d8, 0x1, 0}, // 2^(2^-7)
	{0x29ab13ec11dc9544, 0x00b1afa5abcbed61, 0x1, 0}, // 2^(2^-8)
	{0xff19d294cf2f679c, 0x0058c86da1c09ea1, 0x1, 0}, // 2^(2^-9)
	{0x6d21bfc89a23a010, 0x002c605e2e8cec50, 0x1, 0}, // 2^(2^-10)
	{0x28bca9c55c31e5e0, 0x00162f3904051fa1, 0x1, 0}, // 2^(2^-11)
	{0x38e31671ca939726, 0x000b175effdc76ba, 0x1, 0}, // 2^(2^-12)
	{0x6cacd4b180917c3e, 0x00058ba01fb9f96d, 0x1, 0}, // 2^(2^-13)
	{0xd0985c348c68e7b3, 0x0002c5cc37da9491, 0x1, 0}, // 2^(2^-14)
	{0x54457d5995292026, 0x000162e525ee0547, 0x1, 0}, // 2^(2^-15)
	{0x0618bf4a4ade83fc, 0x0000b17255775c04, 0x1, 0}, // 2^(2^-16)
	{0x2eed81e9b7d4cfac, 0x000058b91b5bc9ae, 0x1, 0}, // 2^(2^-17)
	{0xa4d7c8acc017b7c9, 0x00002c5c89d5ec6c, 0x1, 0}, // 2^(2^-18)
	{0x060e02d839a9d16d, 0x0000162e43f4f831, 0x1, 0}, // 2^(2^-19)
	{0xd9f890ea06911763, 0x00000b1721bcfc99, 0x1, 0}, // 2^(2^-20)
	{0x97f9ca14dbcc1628, 0x0000058b90cf1e6d, 0x1, 0}, // 2^(2^-21)
	{0x016468f6bac5ca2c, 0x000002c5c863b73f, 0x1, 0}, // 2^(2^-22)
	{0x8f6119e3c02282a5, 0x00000162e430e5a1, 0x1, 0}, // 2^(2^-23)
	{0x4b86e6d96efd1bff, 0x000000b172183551, 0x1, 0}, // 2^(2^-24)
	{0xc6be5df846c5b2f0, 0x00000058b90c0b48, 0x1, 0}, // 2^(2^-25)
	{0x6b9e94213c72737a, 0x0000002c5c8601cc, 0x1, 0}, // 2^(2^-26)
	{0x37df38aa2b219f06, 0x000000162e42fff0, 0x1, 0}, // 2^(2^-27)
	{0x9c739aa5819f44f9, 0x0000000b17217fba, 0x1, 0}, // 2^(2^-28)
	{0xee5acd3c1cedc823, 0x000000058b90bfcd, 0x1, 0}, // 2^(2^-29)
	{0x1f35a6a30da1be50, 0x00000002c5c85fe3, 0x1, 0}, // 2^(2^-30)
	{0x999ce3541b9fffcf, 0x0000000162e42ff0, 0x1, 0}, // 2^(2^-31)
	{0x0f4ef5aadda45554, 0x00000000b17217f8, 0x1, 0}, // 2^(2^-32)
	{0xf8479bd5a81b51ad, 0x0000000058b90bfb, 0x1, 0}, // 2^(2^-33)
	{0xf84bd62ae30a74cc, 0x000000002c5c85fd, 0x1, 0}, // 2^(2^-34)
	{0xfb2fed257559bdaa, 0x00000000162e42fe, 0x1, 0}, // 2^(2^-35)
	{0x7d5a7716bba4a9af, 0x000000000b17217f, 0x1, 0}, // 2^(2^-36)
	{0xbe9ddbac5e109ccf, 0x00000000058b90bf, 0x1, 0}, // 2^(2^-37)
	{0xdf4b15de6f17eb0d, 0x0000000002c5c85f, 0x1, 0}, // 2^(2^-38)
	{0xefa494f1478fde05, 0x000000000162e42f, 0x1, 0}, // 2^(2^-39)
	{0xf7d20cf927c8e94c, 0x0000000000b17217, 0x1, 0}, // 2^(2^-40)
	{0xfbe8f71cb4e4b33e, 0x000000000058b90b, 0x1, 0}, // 2^(2^-41)
	{0xfdf477b662b26945, 0x00000000002c5c85, 0x1, 0}, // 2^(2^-42)
	{0xfefa3ae53369388c, 0x0000000000162e42, 0x1, 0}, // 2^(2^-43)
	{0x7f7d1d351a389d40, 0x00000000000b1721, 0x1, 0}, // 2^(2^-44)
	{0xbfbe8e8b2d3d4ede, 0x0000000000058b90, 0x1, 0}, // 2^(2^-45)
	{0x5fdf4741bea6e77f, 0x000000000002c5c8, 0x1, 0}, // 2^(2^-46)
	{0x2fefa39fe95583c3, 0x00000000000162e4, 0x1, 0}, // 2^(2^-47)
	{0x17f7d1cfb72b45e2, 0x000000000000b172, 0x1, 0}, // 2^(2^-48)
	{0x0bfbe8e7cc35c3f1, 0x00000000000058b9, 0x1, 0}, // 2^(2^-49)
	{0x85fdf473e242ea38, 0x0000000000002c5c, 0x1, 0}, // 2^(2^-50)
	{0x42fefa39f02b772c, 0x000000000000162e, 0x1, 0}, // 2^(2^-51)
	{0x217f7d1cf7d83c1a, 0x0000000000000b17, 0x1, 0}, // 2^(2^-52)
	{0x90bfbe8e7bdcbe2e, 0x000000000000058b, 0x1, 0}, // 2^(2^-53)
	{0xc85fdf473dea871f, 0x00000000000002c5, 0x1, 0}, // 2^(2^-54)
	{0xe42fefa39ef44d91, 0x0000000000000162, 0x1, 0}, // 2^(2^-55)
	{0x7217f7d1cf79e949, 0x00000000000000b1, 0x1, 0}, // 2^(2^-56)
	{0xb90bfbe8e7bce544, 0x0000000000000058, 0x1, 0}, // 2^(2^-57)
	{0x5c85fdf473de6eca, 0x000000000000002c, 0x1, 0}, // 2^(2^-58)
	{0x2e42fefa39ef366f, 0x0000000000000016, 0x1, 0}, // 2^(2^-59)
	{0x17217f7d1cf79afa, 0x000000000000000b, 0x1, 0}, // 2^(2^-60)
	{0x8b90bfbe8e7bcd6d, 0x0000000000000005, 0x1, 0}, // 2^(2^-61)
	{0xc5c85fdf473de6b2, 0x0000000000000002, 0x1, 0}, // 2^(2^-62)
	{0x62e42fefa39ef358, 0x0000000000000001, 0x1, 0}, // 2^(2^-63)
	{0xb17217f7d1cf79ac, 0x0000000000000000, 0x1, 0}, // 2^(2^-64)
}

var (
	// log2(e) and ln(2) in 1.128 fixed point.
	log2E = uint256.Int{0x7d0ffda0d23a7d12, 0x71547652b82fe177, 0x1, 0}
	ln2   = uint256.Int{0xc9e3b39803f2f6af, 0xb17217f7d1cf79ab, 0x0, 0}
)
