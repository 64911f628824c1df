/*
Vault contract custodies fungible-token deposits and issues transferable
NEP-11 claim tokens, each representing a proportional, time-locked right to
redeem a part of the pooled balance later.

Every pooled token has its own share ledger. The first deposit of a pool
mints a fixed baseline share quantity; every later deposit mints shares
proportional to the fraction of the post-deposit pool it contributed, so
plain NEP-17 transfers into the vault grow the redemption value of already
issued shares without minting new ones. Redemption converts shares back to
the live pool balance with floor rounding, burns the claim token and deletes
the lock; lock ids are never reused.

Per-account aggregate share counters are advisory only. They are credited to
the depositing account and debited from the redeeming owner, and a claim
token transferred between the two leaves them permanently skewed. Lock
records are the authoritative source.

All externally reachable mutating methods share one reentrancy flag: a
nested call into Deposit or Redeem while either is in progress fails
immediately.

# Contract notifications

CreateLock notification. Produced when a deposit creates a new lock and
mints its claim token.

	CreateLock:
	  - name: id
	    type: Integer
	  - name: holder
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: shares
	    type: Integer
	  - name: token
	    type: Hash160
	  - name: unlockTime
	    type: Integer

RedeemLock notification. Produced when a claim token owner redeems a lock,
before the lock record is destroyed.

	RedeemLock:
	  - name: tokenId
	    type: ByteArray
	  - name: owner
	    type: Hash160
	  - name: amount
	    type: Integer
	  - name: shares
	    type: Integer
	  - name: token
	    type: Hash160

BaseURIUpdated notification. Produced when committee changes the claim token
metadata base URI.

	BaseURIUpdated:
	  - name: uri
	    type: String

Transfer notification follows the NEP-11 standard and is produced on mint,
burn and ownership transfer of claim tokens.
*/
package vault
